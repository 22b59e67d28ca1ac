// Package content serves the rights guidance shown to the user: a rights
// overview, interaction scripts, and common mistakes, per language.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/store"
	"github.com/apex/log"
)

// FallbackLanguage language served when the requested one is unknown
const FallbackLanguage = "english"

// GuidanceCacheTTL how long a served guidance block stays cached
const GuidanceCacheTTL = time.Hour * 24

// Guidance one rights guidance block
type Guidance struct {
	// State two-letter state code the guidance was requested for
	State string `json:"state"`
	// Language language the guidance is written in
	Language string `json:"language"`
	// Rights the rights overview text
	Rights string `json:"rights"`
	// Scripts the interaction script text
	Scripts string `json:"scripts"`
	// Mistakes the common mistakes text
	Mistakes string `json:"mistakes"`
}

// Provider serves rights guidance
type Provider interface {
	/*
		Guidance fetch the rights guidance for a state and language.

		An unknown language falls back to English.

			@param ctx context.Context - execution context
			@param stateCode string - two-letter state code
			@param language string - requested language
			@returns the guidance block
	*/
	Guidance(ctx context.Context, stateCode string, language string) (Guidance, error)
}

// guidanceCacheKey cache key for one guidance block
func guidanceCacheKey(stateCode, language string) string {
	return fmt.Sprintf("guidance_%s_%s", stateCode, language)
}

// staticProvider implements Provider from the built-in corpus. Guidance is
// labeled with the requested state, and state specificity comes from the law
// references in the location package; the corpus itself does not vary by
// state.
type staticProvider struct {
	goutils.Component

	archive store.DeviceStore
}

/*
NewStaticProvider define a guidance provider serving the built-in corpus

	@param archive store.DeviceStore - device archive used for caching. Pass
	    nil to disable caching.
	@returns provider instance
*/
func NewStaticProvider(archive store.DeviceStore) Provider {
	return &staticProvider{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "content", "component": "static-provider"},
		},
		archive: archive,
	}
}

/*
Guidance fetch the rights guidance for a state and language.

An unknown language falls back to English.

	@param ctx context.Context - execution context
	@param stateCode string - two-letter state code
	@param language string - requested language
	@returns the guidance block
*/
func (p *staticProvider) Guidance(
	ctx context.Context, stateCode string, language string,
) (Guidance, error) {
	if !models.IsValidStateCode(stateCode) {
		return Guidance{}, fmt.Errorf("'%s' is not a US state code", stateCode)
	}

	language = strings.ToLower(language)
	corpus, ok := guidanceCorpus[language]
	if !ok {
		language = FallbackLanguage
		corpus = guidanceCorpus[FallbackLanguage]
	}

	cacheKey := guidanceCacheKey(stateCode, language)
	if p.archive != nil {
		var cached Guidance
		hit, err := p.archive.GetFromCache(ctx, cacheKey, &cached)
		if err != nil {
			log.WithError(err).WithFields(p.LogTags).Warn("Guidance cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	result := Guidance{
		State:    stateCode,
		Language: language,
		Rights:   corpus.rights,
		Scripts:  corpus.scripts,
		Mistakes: corpus.mistakes,
	}

	if p.archive != nil {
		if err := p.archive.SaveToCache(ctx, cacheKey, result, GuidanceCacheTTL); err != nil {
			log.WithError(err).WithFields(p.LogTags).Warn("Guidance cache write failed")
		}
	}

	return result, nil
}
