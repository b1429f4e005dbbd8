package prediction

import "errors"

var ErrNotBinary = errors.New("question needs exactly two options")

// Question is a binary forced-choice prompt. Options always holds exactly
// two entries, in the order the admin declared them.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

func NewQuestion(text, optionA, optionB string) Question {
	return Question{Text: text, Options: []string{optionA, optionB}}
}

// Option returns the 1-based option, matching how admins reference them
// ("1" or "2") when recording the correct answer.
func (q Question) Option(index int) (string, bool) {
	if index < 1 || index > len(q.Options) {
		return "", false
	}
	return q.Options[index-1], true
}

func (q Question) Validate() error {
	if len(q.Options) != 2 {
		return ErrNotBinary
	}
	return nil
}

func (q Question) Clone() Question {
	copied := q
	copied.Options = append([]string(nil), q.Options...)
	return copied
}
