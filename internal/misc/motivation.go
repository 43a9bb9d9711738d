package misc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

// Quote is one motivational line shown in the app, next to the day window.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type MotivationManager struct {
	quotes []Quote
}

// NewMotivationManager reads quotes from a TEXT;AUTHOR csv.
func NewMotivationManager(quotesCsvReader *csv.Reader) (*MotivationManager, error) {
	mm := &MotivationManager{}

	log.Println("reading motivation quotes CSV ...")

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != 2 {
			return nil, fmt.Errorf("record [%s] does not have 2 elements", record)
		}

		mm.quotes = append(mm.quotes, Quote{
			Text:   record[0],
			Author: record[1],
		})
	}

	if len(mm.quotes) == 0 {
		return nil, fmt.Errorf("no quotes loaded")
	}

	log.Printf("loaded %d motivation quotes", len(mm.quotes))
	return mm, nil
}

func (mm *MotivationManager) RandomQuote() Quote {
	return mm.quotes[rand.Intn(len(mm.quotes))]
}

// QuoteOfTheDay is stable within a calendar day, every user sees the
// same line until midnight.
func (mm *MotivationManager) QuoteOfTheDay(date time.Time) Quote {
	day := date.UTC().YearDay() + date.UTC().Year()*366
	return mm.quotes[day%len(mm.quotes)]
}
