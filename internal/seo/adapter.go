// Package seo maps SEO plugin metadata (Rank Math, Yoast) onto one logical record.
package seo

import (
	"encoding/json"
	"maps"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"wpseo/internal/models"
)

// Schema names.
const (
	SchemaRankMath = "rank_math"
	SchemaYoast    = "yoast"
	SchemaNone     = "none"
)

// Rank Math meta keys.
const (
	rankMathBlobKey        = "rank_math_data"
	rankMathKeywordKey     = "rank_math_focus_keyword"
	rankMathDescriptionKey = "rank_math_description"
	blobKeywordKey         = "focus_keyword"
	blobDescriptionKey     = "description"
)

// Schema reads one plugin's fields out of a post payload.
type Schema interface {
	Name() string
	// Read returns the fields the plugin stores and whether the plugin's fields are present at all.
	Read(payload *models.RawSeoPayload) (models.SeoMeta, bool)
}

// Resolution is the adapter's view of one post.
type Resolution struct {
	// Meta holds the Rank Math values; all writes target Rank Math.
	Meta models.SeoMeta
	// Authority names the schema detected as active.
	Authority string
	// YoastDescription is read-only and blocks description generation when set.
	YoastDescription string

	flat bool
	blob map[string]any
}

// Adapter resolves payloads against a prioritised list of schemas.
type Adapter struct {
	rankMath *rankMathSchema
	schemas  []Schema
}

// NewAdapter creates an adapter that prefers Rank Math over Yoast.
func NewAdapter() *Adapter {
	rm := &rankMathSchema{}

	return &Adapter{
		rankMath: rm,
		schemas:  []Schema{rm, yoastSchema{}},
	}
}

// Resolve detects the authoritative schema and reads the logical SEO record.
// An absent or malformed payload resolves to empty fields.
func (a *Adapter) Resolve(payload *models.RawSeoPayload) Resolution {
	if payload == nil {
		payload = &models.RawSeoPayload{}
	}

	res := Resolution{Authority: SchemaNone}

	for _, schema := range a.schemas {
		if _, present := schema.Read(payload); present {
			res.Authority = schema.Name()
			break
		}
	}

	fields := a.rankMath.decode(payload)
	res.Meta = fields.meta
	res.flat = fields.flat
	res.blob = fields.blob

	if yoast, present := (yoastSchema{}).Read(payload); present {
		res.YoastDescription = yoast.MetaDescription
	}

	return res
}

// WriteFields builds the post meta payload for the non-empty fields of update,
// following the Rank Math layout the site already uses.
func (a *Adapter) WriteFields(res Resolution, update models.SeoMeta) map[string]any {
	if !update.HasKeyword() && !update.HasDescription() {
		return nil
	}

	if res.flat {
		meta := map[string]any{}
		if update.HasKeyword() {
			meta[rankMathKeywordKey] = update.FocusKeyword
		}

		if update.HasDescription() {
			meta[rankMathDescriptionKey] = update.MetaDescription
		}

		return meta
	}

	blob := make(map[string]any, len(res.blob)+2)
	maps.Copy(blob, res.blob)

	if update.HasKeyword() {
		blob[blobKeywordKey] = update.FocusKeyword
	}

	if update.HasDescription() {
		blob[blobDescriptionKey] = update.MetaDescription
	}

	encoded, err := json.Marshal(blob)
	if err != nil {
		return nil
	}

	return map[string]any{rankMathBlobKey: string(encoded)}
}

type rankMathSchema struct{}

type rankMathFields struct {
	blob    map[string]any
	meta    models.SeoMeta
	flat    bool
	present bool
}

func (rankMathSchema) Name() string { return SchemaRankMath }

func (s *rankMathSchema) Read(payload *models.RawSeoPayload) (models.SeoMeta, bool) {
	fields := s.decode(payload)
	return fields.meta, fields.present
}

// decode reads the flat rank_math_* keys and the rank_math_data blob.
// Flat keys win when both carry a value.
func (rankMathSchema) decode(payload *models.RawSeoPayload) rankMathFields {
	var fields rankMathFields

	meta := decodeObject(payload.Meta)
	if meta == nil {
		return fields
	}

	if raw, ok := meta[rankMathBlobKey]; ok {
		if blob := decodeBlob(raw); blob != nil {
			fields.blob = blob
			fields.present = true

			fields.meta.FocusKeyword = primaryKeyword(stringValue(blob[blobKeywordKey]))
			fields.meta.MetaDescription = strings.TrimSpace(stringValue(blob[blobDescriptionKey]))
		}
	}

	if raw, ok := meta[rankMathKeywordKey]; ok {
		fields.flat = true
		fields.present = true

		if kw := primaryKeyword(stringValue(decodeAny(raw))); kw != "" {
			fields.meta.FocusKeyword = kw
		}
	}

	if raw, ok := meta[rankMathDescriptionKey]; ok {
		fields.flat = true
		fields.present = true

		if desc := strings.TrimSpace(stringValue(decodeAny(raw))); desc != "" {
			fields.meta.MetaDescription = desc
		}
	}

	return fields
}

type yoastSchema struct{}

func (yoastSchema) Name() string { return SchemaYoast }

func (yoastSchema) Read(payload *models.RawSeoPayload) (models.SeoMeta, bool) {
	if payload.YoastHead == nil {
		return models.SeoMeta{}, false
	}

	desc := strings.TrimSpace(payload.YoastHead.Description)

	return models.SeoMeta{MetaDescription: desc}, desc != ""
}

// primaryKeyword returns the first entry of Rank Math's comma separated keyword list.
func primaryKeyword(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(first)
}

func decodeObject(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	return obj
}

func decodeAny(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	return v
}

// decodeBlob accepts rank_math_data as an object or as a JSON encoded string,
// repairing the string form when it is malformed.
func decodeBlob(raw json.RawMessage) map[string]any {
	switch v := decodeAny(raw).(type) {
	case map[string]any:
		return v
	case string:
		return parseBlobString(v)
	}

	return nil
}

func parseBlobString(s string) map[string]any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var blob map[string]any
	if err := json.Unmarshal([]byte(s), &blob); err == nil {
		return blob
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil
	}

	if err := json.Unmarshal([]byte(repaired), &blob); err != nil {
		return nil
	}

	return blob
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []any:
		// register_meta with single=false exposes arrays.
		if len(s) > 0 {
			if first, ok := s[0].(string); ok {
				return first
			}
		}
	}

	return ""
}
