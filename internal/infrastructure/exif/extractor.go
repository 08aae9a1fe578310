// Package exif reads capture metadata embedded in uploaded photos.
package exif

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// ErrNoMetadata means the image carries no readable EXIF block.
var ErrNoMetadata = errors.New("image has no EXIF metadata")

// Metadata is the subset of EXIF the provenance check cares about.
// Nil fields were absent from the image.
type Metadata struct {
	Latitude   *float64
	Longitude  *float64
	CapturedAt *time.Time
}

func (m *Metadata) HasGPS() bool {
	return m.Latitude != nil && m.Longitude != nil
}

type Extractor struct {
	location *time.Location
}

// NewExtractor interprets EXIF timestamps that carry no zone in loc.
func NewExtractor(loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.Local
	}
	return &Extractor{location: loc}
}

func (e *Extractor) Extract(data []byte) (*Metadata, error) {
	x, err := goexif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && goexif.IsCriticalError(err)) {
		return nil, ErrNoMetadata
	}

	meta := &Metadata{}
	if lat, lng, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lng
	}
	if captured, ok := e.captureTime(x); ok {
		meta.CapturedAt = &captured
	}
	return meta, nil
}

// captureTime prefers the GPS timestamp, which is always UTC. DateTimeOriginal
// keeps any zone goexif resolved and falls back to the extractor location.
func (e *Extractor) captureTime(x *goexif.Exif) (time.Time, bool) {
	if ts, err := gpsTime(x); err == nil {
		return ts, true
	}

	ts, err := x.DateTime()
	if err != nil || ts.IsZero() {
		return time.Time{}, false
	}
	if ts.Location() != time.Local {
		return ts, true
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, e.location), true
}

func gpsTime(x *goexif.Exif) (time.Time, error) {
	dateTag, err := x.Get(goexif.GPSDateStamp)
	if err != nil {
		return time.Time{}, err
	}
	date, err := dateTag.StringVal()
	if err != nil {
		return time.Time{}, err
	}
	timeTag, err := x.Get(goexif.GPSTimeStamp)
	if err != nil {
		return time.Time{}, err
	}

	var hms [3]float64
	for i := range hms {
		num, denom, err := timeTag.Rat2(i)
		if err != nil {
			return time.Time{}, err
		}
		if denom == 0 {
			return time.Time{}, fmt.Errorf("GPSTimeStamp component %d has zero denominator", i)
		}
		hms[i] = float64(num) / float64(denom)
	}
	return parseGPSTimestamp(date, hms)
}

// parseGPSTimestamp combines GPSDateStamp ("2006:01:02") with the
// hour/minute/second triple of GPSTimeStamp into a UTC time.
func parseGPSTimestamp(date string, hms [3]float64) (time.Time, error) {
	day, err := time.ParseInLocation("2006:01:02", strings.TrimRight(strings.TrimSpace(date), "\x00"), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid GPSDateStamp %q: %w", date, err)
	}
	if hms[0] < 0 || hms[0] >= 24 || hms[1] < 0 || hms[1] >= 60 || hms[2] < 0 || hms[2] >= 61 {
		return time.Time{}, fmt.Errorf("GPSTimeStamp out of range: %v", hms)
	}
	offset := time.Duration(hms[0]*float64(time.Hour)) +
		time.Duration(hms[1]*float64(time.Minute)) +
		time.Duration(hms[2]*float64(time.Second))
	return day.Add(offset).Truncate(time.Second), nil
}
