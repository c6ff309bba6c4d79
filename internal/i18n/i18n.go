package i18n

import (
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/vipmusic/guardbot/resources"
)

const (
	defaultLanguage  = "en"
	translationsFile = "i18n/translations.yml"
)

var state = struct {
	once         sync.Once
	translations map[string]map[string]string
	languages    []string
}{}

func load() {
	state.translations = map[string]map[string]string{}
	content, err := resources.FS.ReadFile(translationsFile)
	if err != nil {
		log.WithField("object", "i18n").WithField("error", err.Error()).Error("cant load translations")
		return
	}
	dict := map[string]map[string]string{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		log.WithField("object", "i18n").WithField("error", err.Error()).Error("cant unmarshal translations")
		return
	}

	seen := map[string]struct{}{defaultLanguage: {}}
	for key, byLocale := range dict {
		for locale, text := range byLocale {
			lang := strings.ToLower(locale)
			if state.translations[lang] == nil {
				state.translations[lang] = map[string]string{}
			}
			state.translations[lang][key] = text
			seen[lang] = struct{}{}
		}
	}
	for lang := range seen {
		state.languages = append(state.languages, lang)
	}
	sort.Strings(state.languages)
}

// Get returns the translation of key, the key itself is the English text.
func Get(key, lang string) string {
	state.once.Do(load)
	lang = strings.ToLower(lang)
	if lang == defaultLanguage {
		return key
	}
	if res, ok := state.translations[lang][key]; ok {
		return res
	}
	log.WithField("object", "i18n").Tracef(`no translation for key "%s"`, key)
	return key
}

func GetLanguagesList() []string {
	state.once.Do(load)
	return append([]string(nil), state.languages...)
}
