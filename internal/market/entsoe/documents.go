package entsoe

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"time"
)

// intervalLayout is the minute-precision UTC timestamp used in timeInterval.
const intervalLayout = "2006-01-02T15:04Z"

type timeInterval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type pricePoint struct {
	Position int     `xml:"position"`
	Price    float64 `xml:"price.amount"`
}

type pricePeriod struct {
	TimeInterval timeInterval `xml:"timeInterval"`
	Resolution   string       `xml:"resolution"`
	Points       []pricePoint `xml:"Point"`
}

type priceTimeSeries struct {
	Period pricePeriod `xml:"Period"`
}

// publicationDocument is the A44 day-ahead price response.
type publicationDocument struct {
	TimeSeries []priceTimeSeries `xml:"TimeSeries"`
}

type quantityPoint struct {
	Position int     `xml:"position"`
	Quantity float64 `xml:"quantity"`
}

type generationPeriod struct {
	TimeInterval timeInterval    `xml:"timeInterval"`
	Resolution   string          `xml:"resolution"`
	Points       []quantityPoint `xml:"Point"`
}

type generationTimeSeries struct {
	InBiddingZone *string          `xml:"inBiddingZone_Domain.mRID"`
	PSRType       string           `xml:"MktPSRType>psrType"`
	Period        generationPeriod `xml:"Period"`
}

func (ts generationTimeSeries) end() (time.Time, error) {
	return time.Parse(intervalLayout, ts.Period.TimeInterval.End)
}

// glDocument is the A75 generation per type response.
type glDocument struct {
	TimeSeries []generationTimeSeries `xml:"TimeSeries"`
}

// acknowledgementRoot names the document ENTSO-E returns instead of data
// when nothing matches the query.
const acknowledgementRoot = "Acknowledgement_MarketDocument"

// rootElement returns the local name of the first element in body.
func rootElement(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("empty document")
			}
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// acknowledgementDocument is returned instead of data when nothing matches.
type acknowledgementDocument struct {
	Reason struct {
		Code string `xml:"code"`
		Text string `xml:"text"`
	} `xml:"Reason"`
}
