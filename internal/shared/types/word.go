package types

// WordEntry is one dictionary entry in the collegiate JSON format.
// Only the fields the detail panel reads are decoded.
type WordEntry struct {
	Meta       WordMeta `json:"meta"`
	Headword   Headword `json:"hwi"`
	Functional string   `json:"fl"`
	ShortDefs  []string `json:"shortdef"`
}

// WordMeta holds entry metadata
type WordMeta struct {
	ID        string   `json:"id"`
	UUID      string   `json:"uuid"`
	Stems     []string `json:"stems"`
	Offensive bool     `json:"offensive"`
}

// Headword holds the headword and its pronunciations
type Headword struct {
	Text           string          `json:"hw"`
	Pronunciations []Pronunciation `json:"prs,omitempty"`
}

// Pronunciation is one written pronunciation, with an optional audio clip
type Pronunciation struct {
	Written string `json:"mw"`
	Sound   *Sound `json:"sound,omitempty"`
}

// Sound names an audio clip on the dictionary's media host
type Sound struct {
	Audio string `json:"audio"`
}

// Audio returns the first pronunciation clip, if any.
func (e WordEntry) Audio() (string, bool) {
	for _, pr := range e.Headword.Pronunciations {
		if pr.Sound != nil && pr.Sound.Audio != "" {
			return pr.Sound.Audio, true
		}
	}
	return "", false
}
