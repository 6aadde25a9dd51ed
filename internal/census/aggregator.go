// Package census turns a mother cat payload into the two summary lines shown
// to the user: the list of mother names and the kitten counts.
package census

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/catcensus/internal/models"
)

const (
	// IntroPhrase prefixes the mother summary. Every name is appended after a
	// single space, so a non-empty summary has two spaces before the first name.
	IntroPhrase = "The mother cats are called "

	// MaleMarker is the gender code of a male kitten.
	MaleMarker = models.MaleMarker

	// FormatJSON is the canonical payload format.
	FormatJSON = "json"
)

// Unmarshaler decodes data into v. json.Unmarshal and yaml.Unmarshal both fit.
type Unmarshaler func(data []byte, v interface{}) error

type motherWire struct {
	Name    *string       `json:"name" yaml:"name"`
	Kittens *[]kittenWire `json:"kittens" yaml:"kittens"`
}

type kittenWire struct {
	Gender string `json:"gender" yaml:"gender"`
}

// Aggregate decodes a JSON payload and summarizes it.
// Decoding failures are returned as *DecodeError with a zero result.
func Aggregate(payload []byte) (models.AggregationResult, error) {
	mothers, err := DecodeJSON(payload)
	if err != nil {
		return models.AggregationResult{}, err
	}
	return Summarize(mothers), nil
}

// DecodeJSON decodes a JSON payload into mother records.
func DecodeJSON(payload []byte) ([]models.MotherRecord, error) {
	return DecodeWith(FormatJSON, json.Unmarshal, payload)
}

// DecodeWith decodes payload with unmarshal and checks the decoded shape:
// the top level must be a sequence, and every mother needs a name and a
// kittens sequence. A kitten without gender is kept as unspecified.
func DecodeWith(format string, unmarshal Unmarshaler, payload []byte) ([]models.MotherRecord, error) {
	var wire *[]motherWire
	if err := unmarshal(payload, &wire); err != nil {
		return nil, NewDecodeError(format, err)
	}
	if wire == nil {
		return nil, NewDecodeError(format, ErrEmptyPayload)
	}

	mothers := make([]models.MotherRecord, 0, len(*wire))
	for i, mw := range *wire {
		if mw.Name == nil {
			return nil, NewDecodeError(format, fmt.Errorf("mother %d: missing name", i))
		}
		if mw.Kittens == nil {
			return nil, NewDecodeError(format, fmt.Errorf("mother %d (%s): missing kittens", i, *mw.Name))
		}

		kittens := make([]models.KittenRecord, 0, len(*mw.Kittens))
		for _, kw := range *mw.Kittens {
			kittens = append(kittens, models.KittenRecord{Gender: kw.Gender})
		}
		mothers = append(mothers, models.MotherRecord{Name: *mw.Name, Kittens: kittens})
	}

	return mothers, nil
}

// Summarize folds already decoded records into an AggregationResult.
// Mothers are visited in input order and each kitten is counted once.
func Summarize(mothers []models.MotherRecord) models.AggregationResult {
	var names strings.Builder
	names.WriteString(IntroPhrase)

	total, male := 0, 0
	for m := range mothers {
		names.WriteString(" ")
		names.WriteString(mothers[m].Name)

		for k := range mothers[m].Kittens {
			total++
			if mothers[m].Kittens[k].IsMale() {
				male++
			}
		}
	}

	return models.AggregationResult{
		MotherSummary: names.String(),
		KittenSummary: KittenSentence(total, male),
		Mothers:       len(mothers),
		Total:         total,
		Male:          male,
	}
}

// KittenSentence renders the kitten count line.
func KittenSentence(total, male int) string {
	return strconv.Itoa(total) + " total cats and " + strconv.Itoa(male) + " male cats."
}
