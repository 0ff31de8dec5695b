package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"danawa/crawler/internal/domain"
)

// ErrMalformed marks a raw record that must not enter the batch.
var ErrMalformed = errors.New("malformed record")

// MalformedError reports why a raw record was rejected.
type MalformedError struct {
	Reason string
	Raw    domain.RawRecord
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s (name=%q link=%q)", ErrMalformed, e.Reason, e.Raw.Name, e.Raw.Link)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformed
}

// Normalizer converts raw triples into records.
type Normalizer struct {
	pendingMarker string
}

func NewNormalizer(pendingMarker string) *Normalizer {
	return &Normalizer{pendingMarker: strings.TrimSpace(pendingMarker)}
}

// Normalize trims the name and link and reduces the price text to digits.
// Pending, empty or unreadable prices become 0. A link starting with "/"
// points at a placeholder node and is rejected.
func (n *Normalizer) Normalize(raw domain.RawRecord) (domain.Record, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return domain.Record{}, &MalformedError{Reason: "empty name", Raw: raw}
	}

	link := strings.TrimSpace(raw.Link)
	if link == "" {
		return domain.Record{}, &MalformedError{Reason: "empty link", Raw: raw}
	}
	if strings.HasPrefix(link, "/") {
		return domain.Record{}, &MalformedError{Reason: "relative link", Raw: raw}
	}

	return domain.Record{
		Name:  name,
		Price: n.price(raw.Price),
		Link:  link,
	}, nil
}

func (n *Normalizer) price(text string) int {
	text = strings.TrimSpace(text)
	if n.pendingMarker != "" && text == n.pendingMarker {
		return 0
	}
	digits := nonDigitRegex.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return price
}
