package source

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pickup-trip-service/internal/domain"

	"github.com/jszwec/csvutil"
)

// Columns are the zero-based positions of the fields read from each feed row.
type Columns struct {
	Address int
	Lat     int
	Lon     int
}

func (c Columns) validate() error {
	if c.Address < 0 || c.Lat < 0 || c.Lon < 0 {
		return errors.New("source columns must not be negative")
	}
	if c.Address == c.Lat || c.Address == c.Lon || c.Lat == c.Lon {
		return fmt.Errorf("source columns must be distinct: address=%d lat=%d lon=%d", c.Address, c.Lat, c.Lon)
	}
	return nil
}

// width is the number of cells a row needs to carry every column.
func (c Columns) width() int {
	return max(c.Address, c.Lat, c.Lon) + 1
}

// header names each position so csvutil can map the three columns by tag.
func (c Columns) header() []string {
	h := make([]string, c.width())
	for i := range h {
		h[i] = "col_" + strconv.Itoa(i)
	}
	h[c.Address] = "address"
	h[c.Lat] = "lat"
	h[c.Lon] = "lon"
	return h
}

type feedRow struct {
	Address string `csv:"address"`
	Lat     string `csv:"lat"`
	Lon     string `csv:"lon"`
}

// fixedWidthReader drops rows too short to carry every column and truncates
// longer ones, so csvutil always sees records matching the header.
type fixedWidthReader struct {
	r     csvutil.Reader
	width int
}

func (f *fixedWidthReader) Read() ([]string, error) {
	for {
		record, err := f.r.Read()
		if err != nil {
			return nil, err
		}
		if len(record) < f.width {
			continue
		}
		return record[:f.width], nil
	}
}

// decodeRows builds the address list and store from header-less records.
// Rows with an empty address or non-numeric coordinates are skipped.
func decodeRows(r csvutil.Reader, cols Columns) ([]string, *domain.CoordinateStore, error) {
	dec, err := csvutil.NewDecoder(&fixedWidthReader{r: r, width: cols.width()}, cols.header()...)
	if err != nil {
		return nil, nil, fmt.Errorf("create row decoder: %w", err)
	}

	addresses := []string{}
	store := domain.NewCoordinateStore()

	for {
		var row feedRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("decode row: %w", err)
		}

		address := domain.NormalizeAddress(row.Address)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row.Lon), 64)
		if latErr != nil || lonErr != nil || address == "" {
			continue
		}

		store.Set(address, domain.Coordinates{Lat: lat, Lon: lon})
		addresses = append(addresses, address)
	}

	return addresses, store, nil
}

// sliceReader serves pre-read rows through the csvutil.Reader interface.
type sliceReader struct {
	rows [][]string
	next int
}

func (s *sliceReader) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func unavailable(err error) error {
	return &domain.PlanError{Kind: domain.KindSourceUnavailable, Err: err}
}
