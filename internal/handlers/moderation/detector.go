package moderation

import (
	"regexp"

	"github.com/pkg/errors"
)

const (
	DefaultURLPattern = `(?i)(?:https?://|www\.)[a-z0-9.\-]+(?:\.[a-z]{2,})+(?:/\S*)?|\b(?:t|telegram)\.me/\S+`
	DefaultAdPattern  = `(?i)(?:\b(?:free|cheap|discount|buy now|sale)\b)|(?:\b(?:\.com|\.net|\.org|\.xyz|\.site|\.online|\.shop)\b)`
)

// Detector holds the compiled content rules.
type Detector struct {
	url *regexp.Regexp
	ad  *regexp.Regexp
}

func NewDetector(urlPattern, adPattern string) (*Detector, error) {
	if urlPattern == "" {
		urlPattern = DefaultURLPattern
	}
	if adPattern == "" {
		adPattern = DefaultAdPattern
	}
	url, err := regexp.Compile(urlPattern)
	if err != nil {
		return nil, errors.Wrap(err, "compile url pattern")
	}
	ad, err := regexp.Compile(adPattern)
	if err != nil {
		return nil, errors.Wrap(err, "compile ad pattern")
	}
	return &Detector{url: url, ad: ad}, nil
}

func (d *Detector) HasLink(bio string) bool {
	return bio != "" && d.url.MatchString(bio)
}

func (d *Detector) IsAd(text string) bool {
	return text != "" && d.ad.MatchString(text)
}
