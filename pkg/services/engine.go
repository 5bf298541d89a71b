package services

import (
	"errors"
	"os"
	"strings"

	"checkdocs/pkg/logging"
	"checkdocs/pkg/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// SaveRequest carries the admin form fields of one create or edit.
type SaveRequest struct {
	// OriginalFile is the file name being edited; empty when creating.
	OriginalFile  string `json:"original_file"`
	File          string `json:"file"`
	ID            string `json:"id"`
	Level         string `json:"level"`
	Script        string `json:"script"`
	TitleFr       string `json:"title_fr"`
	TitleEn       string `json:"title_en"`
	ExplanationFr string `json:"explanation_fr"`
	ExplanationEn string `json:"explanation_en"`
	ResolutionFr  string `json:"resolution_fr"`
	ResolutionEn  string `json:"resolution_en"`
	Content       string `json:"content"`
}

// Validate rejects requests that cannot be saved before any I/O happens.
func (r SaveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.File, validation.By(notBlank(ErrFileNameRequired))),
		validation.Field(&r.Content, validation.By(notBlank(ErrContentEmpty))),
	)
}

func notBlank(err error) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return err
		}
		return nil
	}
}

func (r SaveRequest) trimmed() SaveRequest {
	content := r.Content
	r = SaveRequest{
		OriginalFile:  strings.TrimSpace(r.OriginalFile),
		File:          strings.TrimSpace(r.File),
		ID:            strings.TrimSpace(r.ID),
		Level:         strings.TrimSpace(r.Level),
		Script:        strings.TrimSpace(r.Script),
		TitleFr:       strings.TrimSpace(r.TitleFr),
		TitleEn:       strings.TrimSpace(r.TitleEn),
		ExplanationFr: strings.TrimSpace(r.ExplanationFr),
		ExplanationEn: strings.TrimSpace(r.ExplanationEn),
		ResolutionFr:  strings.TrimSpace(r.ResolutionFr),
		ResolutionEn:  strings.TrimSpace(r.ResolutionEn),
	}
	r.Content = content
	return r
}

// SaveResult describes a saved check.
type SaveResult struct {
	File  string            `json:"file"`
	Entry models.CheckEntry `json:"manifest"`
	// Normalized is set when the stored name differs from the submitted one.
	Normalized bool `json:"normalized"`
	// Renamed is set when an edit moved the check to a new file.
	Renamed  bool     `json:"renamed"`
	Warnings []string `json:"warnings,omitempty"`
}

// CheckForm is what the edit form is filled with.
type CheckForm struct {
	File     string          `json:"file"`
	Exists   bool            `json:"exists"`
	HasEntry bool            `json:"has_manifest"`
	Document models.Document `json:"document"`
	Fields   SaveRequest     `json:"fields"`
}

// Engine keeps the checks directory and the manifest consistent across
// create, edit, rename and delete. The two stores are written one after the
// other: a failure between the page write and the manifest save leaves an
// orphan page behind, never a manifest row without its page.
type Engine struct {
	ws    *Workspace
	store *ManifestStore
	docs  *Documents
	log   *zap.Logger

	defaultLevel  string
	defaultScript string
	onChange      []func()
}

type EngineOption func(*Engine)

// WithDefaults sets the level and script recorded when a form leaves them blank.
func WithDefaults(level, script string) EngineOption {
	return func(e *Engine) {
		if level != "" {
			e.defaultLevel = level
		}
		if script != "" {
			e.defaultScript = script
		}
	}
}

// WithChangeHook registers fn to run after every successful mutation.
func WithChangeHook(fn func()) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.onChange = append(e.onChange, fn)
		}
	}
}

func NewEngine(ws *Workspace, store *ManifestStore, docs *Documents, log *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		ws:            ws,
		store:         store,
		docs:          docs,
		log:           logging.OrNop(log),
		defaultLevel:  models.DefaultLevel,
		defaultScript: models.DefaultScript,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Grant probes the catalog and returns a copy of e allowed to write.
func (e *Engine) Grant() (*Engine, error) {
	ws, err := e.ws.Grant()
	if err != nil {
		return nil, err
	}
	return e.withWorkspace(ws), nil
}

// WithGrant returns a copy of e acting on a grant obtained earlier, such as one
// kept in a browser session. Writes still re-verify the stores.
func (e *Engine) WithGrant() *Engine {
	return e.withWorkspace(e.ws.withGrant())
}

func (e *Engine) withWorkspace(ws *Workspace) *Engine {
	c := *e
	c.ws = ws
	return &c
}

func (e *Engine) Workspace() *Workspace { return e.ws }
func (e *Engine) Store() *ManifestStore { return e.store }
func (e *Engine) Documents() *Documents { return e.docs }
func (e *Engine) pagePath(name string) string { return SafeJoin(e.ws.ChecksDir(), "", name) }

func (e *Engine) changed() {
	for _, fn := range e.onChange {
		fn()
	}
}

// pendingSave is a validated request with its merged page content.
type pendingSave struct {
	req           SaveRequest
	fileName      string
	original      string
	level         string
	script        string
	explanationFr string
	explanationEn string
	content       string
}

// prepare validates req and merges its fields into the submitted content.
// It does no I/O.
func (e *Engine) prepare(req SaveRequest) (*pendingSave, error) {
	req = req.trimmed()
	if err := req.Validate(); err != nil {
		return nil, validationError(err, "cannot save check")
	}
	fileName, err := NormalizeFileName(req.File)
	if err != nil {
		return nil, err
	}
	original := ""
	if req.OriginalFile != "" {
		if original, err = checkFileName(req.OriginalFile); err != nil {
			return nil, err
		}
	}

	p := &pendingSave{
		req:      req,
		fileName: fileName,
		original: original,
		level:    firstNonEmpty(req.Level, e.defaultLevel),
		script:   firstNonEmpty(req.Script, e.defaultScript),
	}
	var resolutionFr, resolutionEn string
	p.explanationFr, resolutionFr = fallbackPair(req.ExplanationFr, req.ResolutionFr)
	p.explanationEn, resolutionEn = fallbackPair(req.ExplanationEn, req.ResolutionEn)

	content := e.docs.Merge(req.Content, models.DocumentFields{
		ID:            req.ID,
		Level:         p.level,
		Script:        req.Script,
		TitleFr:       req.TitleFr,
		TitleEn:       req.TitleEn,
		ExplanationFr: p.explanationFr,
		ExplanationEn: p.explanationEn,
		ResolutionFr:  resolutionFr,
		ResolutionEn:  resolutionEn,
	})
	p.content = normalizeNewlines(content)
	return p, nil
}

// Save validates req, merges its fields into the page, writes the page, then
// records the manifest row. On rename the old page is removed only once the
// manifest is saved.
func (e *Engine) Save(req SaveRequest) (*SaveResult, error) {
	p, err := e.prepare(req)
	if err != nil {
		return nil, err
	}
	req = p.req
	fileName, original := p.fileName, p.original
	level, script := p.level, p.script
	explanationFr, explanationEn := p.explanationFr, p.explanationEn

	if err := e.ws.Verify(); err != nil {
		return nil, err
	}

	content := p.content
	if err := WriteFileAtomic(e.pagePath(fileName), []byte(content)); err != nil {
		return nil, ioError(err, "impossible d'écrire le fichier HTML")
	}

	manifest := e.store.Load()
	previousKey := ""
	index := -1
	if original != "" {
		previousKey = models.FileKey(original)
		index = manifest.IndexByFile(previousKey)
	}
	if index < 0 {
		index = manifest.IndexByID(req.ID)
	}

	var entry models.CheckEntry
	matchKey := previousKey
	if index >= 0 {
		entry = manifest.Entries[index].Clone()
		matchKey = manifest.Entries[index].File
	}
	entry.ID = req.ID
	entry.Level = level
	entry.Script = script
	entry.TitleFr = req.TitleFr
	entry.TitleEn = req.TitleEn
	entry.DescriptionFr = explanationFr
	entry.DescriptionEn = firstNonEmpty(explanationEn, explanationFr)
	entry.File = models.FileKey(fileName)

	renamed := original != "" && original != fileName
	manifest.Upsert(entry, matchKey)
	if renamed {
		manifest.Remove(previousKey)
	}

	if err := e.store.Save(manifest.Entries); err != nil {
		e.log.Error("check page written but manifest not saved",
			zap.String("file", fileName), zap.Error(err))
		return nil, ioError(err, "impossible de mettre à jour manifest.json")
	}

	result := &SaveResult{
		File:       fileName,
		Entry:      entry,
		Normalized: fileName != submittedName(req.File),
		Renamed:    renamed,
	}
	if renamed {
		if err := os.Remove(e.pagePath(original)); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.log.Warn("cannot remove renamed check page", zap.String("file", original), zap.Error(err))
			result.Warnings = append(result.Warnings, "l'ancien fichier "+original+" n'a pas pu être supprimé")
		}
	}

	e.log.Info("check saved",
		zap.String("file", fileName),
		zap.String("id", entry.ID),
		zap.Bool("renamed", renamed))
	e.changed()
	return result, nil
}

// Preview is what Save would write, without writing it.
type Preview struct {
	File    string `json:"file"`
	Content string `json:"content"`
	Diff    string `json:"diff"`
}

// Preview merges req like Save does and diffs the result against the page on
// disk. Nothing is written and no grant is needed.
func (e *Engine) Preview(req SaveRequest) (*Preview, error) {
	p, err := e.prepare(req)
	if err != nil {
		return nil, err
	}
	source := firstNonEmpty(p.original, p.fileName)
	current, err := os.ReadFile(e.pagePath(source))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, ioError(err, "cannot read check page")
	}

	diff, err := Diff(string(current), p.content, source, p.fileName)
	if err != nil {
		e.log.Debug("diff unavailable", zap.Error(err))
	}
	return &Preview{File: p.fileName, Content: p.content, Diff: diff}, nil
}

// Delete removes a check page and then its manifest row. When the page cannot
// be removed the manifest is left untouched.
func (e *Engine) Delete(file string, confirmed bool) error {
	name, err := checkFileName(file)
	if err != nil {
		return err
	}
	if !confirmed {
		return validationError(ErrNotConfirmed, "delete not confirmed")
	}
	if err := e.ws.Verify(); err != nil {
		return err
	}

	if err := os.Remove(e.pagePath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ioError(err, "impossible de supprimer ce check")
	}

	manifest := e.store.Load()
	if manifest.Remove(models.FileKey(name)) {
		if err := e.store.Save(manifest.Entries); err != nil {
			return err
		}
	}

	e.log.Info("check deleted", zap.String("file", name))
	e.changed()
	return nil
}

// Load gathers what the edit form needs for file: the manifest row, the page
// content and the fields extracted from it.
func (e *Engine) Load(file string) (*CheckForm, error) {
	name, err := checkFileName(file)
	if err != nil {
		return nil, err
	}

	manifest := e.store.Load()
	entry, hasEntry := manifest.ByFile(models.FileKey(name))

	content, readErr := os.ReadFile(e.pagePath(name))
	if readErr != nil && !errors.Is(readErr, os.ErrNotExist) {
		return nil, ioError(readErr, "cannot read check page")
	}
	exists := readErr == nil
	if !exists && !hasEntry {
		return nil, notFoundError(os.ErrNotExist, "unknown check "+name)
	}

	form := &CheckForm{File: name, Exists: exists, HasEntry: hasEntry}
	form.Fields = SaveRequest{
		OriginalFile:  name,
		File:          name,
		ID:            entry.ID,
		Level:         firstNonEmpty(entry.Level, e.defaultLevel),
		Script:        firstNonEmpty(entry.Script, e.defaultScript),
		TitleFr:       entry.TitleFr,
		TitleEn:       entry.TitleEn,
		ExplanationFr: entry.DescriptionFr,
		ExplanationEn: entry.DescriptionEn,
	}
	if exists {
		doc := e.docs.Extract(string(content))
		form.Document = doc
		// Blank manifest values are filled from the page.
		form.Fields.ID = firstNonEmpty(entry.ID, doc.Identifier)
		form.Fields.Level = firstNonEmpty(entry.Level, doc.Level, e.defaultLevel)
		form.Fields.Script = firstNonEmpty(entry.Script, doc.Script, e.defaultScript)
		form.Fields.TitleFr = firstNonEmpty(entry.TitleFr, doc.Title.Fr)
		form.Fields.TitleEn = firstNonEmpty(entry.TitleEn, doc.Title.En)
		form.Fields.Content = string(content)
		form.Fields.ExplanationFr = doc.Description.Fr
		form.Fields.ExplanationEn = doc.Description.En
		form.Fields.ResolutionFr = doc.Resolution.Fr
		form.Fields.ResolutionEn = doc.Resolution.En
	}
	return form, nil
}

// Adopt records a manifest row for a page that has none, built from the
// fields embedded in the page. A page already in the manifest is returned as is.
func (e *Engine) Adopt(file string) (*models.CheckEntry, error) {
	name, err := checkFileName(file)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(e.pagePath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFoundError(err, "unknown check page "+name)
	}
	if err != nil {
		return nil, ioError(err, "cannot read check page")
	}

	manifest := e.store.Load()
	if existing, ok := manifest.ByFile(models.FileKey(name)); ok {
		return &existing, nil
	}
	if err := e.ws.Verify(); err != nil {
		return nil, err
	}

	doc := e.docs.Extract(string(content))
	entry := models.CheckEntry{
		ID:            doc.Identifier,
		Level:         firstNonEmpty(doc.Level, e.defaultLevel),
		Script:        firstNonEmpty(doc.Script, e.defaultScript),
		TitleFr:       doc.Title.Fr,
		TitleEn:       doc.Title.En,
		DescriptionFr: doc.Description.Fr,
		DescriptionEn: doc.Description.En,
		File:          models.FileKey(name),
	}
	// Adoption never takes over another page's row.
	manifest.Entries = append(manifest.Entries, entry)
	manifest.Sort()
	if err := e.store.Save(manifest.Entries); err != nil {
		return nil, err
	}

	e.log.Info("orphan check adopted", zap.String("file", name), zap.String("id", entry.ID))
	e.changed()
	return &entry, nil
}

// fallbackPair fills a blank explanation from the resolution and the other
// way round.
func fallbackPair(explanation, resolution string) (string, string) {
	if explanation == "" {
		explanation = resolution
	}
	if resolution == "" {
		resolution = explanation
	}
	return explanation, resolution
}

// submittedName is the name as typed, with .html appended when it has no
// extension at all.
func submittedName(name string) string {
	if hasHTMLExt(name) {
		return name
	}
	return name + htmlExt
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeNewlines(content string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(content)
}
