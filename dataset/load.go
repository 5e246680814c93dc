package dataset

import (
	"context"
	"errors"
	"strconv"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/logger"
	"github.com/spektr-org/sfhousing/schema"
)

// Load reads all five sources and returns the data context. Any failure is
// fatal: the first *DataLoadError is returned and nothing is partially
// loaded.
func Load(ctx context.Context, sources Sources, lggr logger.Logger) (*Context, error) {
	lggr = lggr.Named("dataset")

	var (
		observations []Observation
		coordinates  []Coordinate
		references   = make(References, 3)
	)

	for _, src := range sources.list() {
		if src.location == "" {
			return nil, loadError(src, "", 0, ErrMissingSource, errors.New("no location configured"))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := readRecords(ctx, src)
		if err != nil {
			return nil, err
		}
		t, err := typeRecords(src, records)
		if err != nil {
			return nil, err
		}

		switch src.name {
		case schema.SourceObservations:
			observations, err = readObservations(t, lggr)
		case schema.SourceCoordinates:
			coordinates, err = readCoordinates(t)
		default:
			key := src.schema.Measures[0].Key
			references[key], err = readReference(t, lggr)
		}
		if err != nil {
			return nil, err
		}

		lggr.Infow("Loaded source", "source", src.name, "location", src.location, "rows", t.rows())
	}

	return NewContext(observations, coordinates, references), nil
}

func readObservations(t *table, lggr logger.Logger) ([]Observation, error) {
	cfg := t.src.schema

	years, err := t.integers(cfg.Dimensions[0].Column)
	if err != nil {
		return nil, err
	}
	names, err := t.text(cfg.Dimensions[1].Column)
	if err != nil {
		return nil, err
	}

	measures := make(map[string][]float64, len(cfg.Measures))
	for _, m := range cfg.Measures {
		vals, missing, err := t.measure(m)
		if err != nil {
			return nil, err
		}
		if missing > 0 {
			lggr.Debugw("Values failed numeric coercion and are treated as missing",
				"source", t.src.name, "column", m.Column, "missing", missing)
		}
		measures[m.Key] = vals
	}

	out := make([]Observation, t.rows())
	for i := range out {
		out[i] = Observation{
			Year:         years[i],
			Neighborhood: names[i],
			SalePrice:    measures[schema.KeySalePrice][i],
			HousingUnits: measures[schema.KeyHousingUnits][i],
			GrossRent:    measures[schema.KeyGrossRent][i],
		}
	}
	return out, nil
}

func readCoordinates(t *table) ([]Coordinate, error) {
	cfg := t.src.schema

	names, err := t.text(cfg.Dimensions[0].Column)
	if err != nil {
		return nil, err
	}
	lat, _, err := t.measure(cfg.Measures[0])
	if err != nil {
		return nil, err
	}
	lon, _, err := t.measure(cfg.Measures[1])
	if err != nil {
		return nil, err
	}

	out := make([]Coordinate, t.rows())
	for i := range out {
		out[i] = Coordinate{Neighborhood: names[i], Lat: lat[i], Lon: lon[i]}
	}
	return out, nil
}

// readReference reduces a reference table to one mean value per year.
func readReference(t *table, lggr logger.Logger) ([]YearValue, error) {
	cfg := t.src.schema
	m := cfg.Measures[0]

	years, err := t.integers(cfg.Dimensions[0].Column)
	if err != nil {
		return nil, err
	}
	vals, missing, err := t.measure(m)
	if err != nil {
		return nil, err
	}
	if missing > 0 {
		lggr.Debugw("Values failed numeric coercion and are treated as missing",
			"source", t.src.name, "column", m.Column, "missing", missing)
	}

	records := make([]engine.Record, len(years))
	for i := range records {
		records[i] = engine.Record{
			Dimensions: map[string]string{schema.KeyYear: strconv.Itoa(years[i])},
			Measures:   map[string]float64{m.Key: vals[i]},
		}
	}
	groups := engine.GroupAndAggregate(engine.NewSliceView(records), []string{schema.KeyYear}, []string{m.Key})
	if len(groups) < len(records) {
		lggr.Debugw("Reduced reference table to per-year means",
			"source", t.src.name, "rows", len(records), "years", len(groups))
	}

	out := make([]YearValue, 0, len(groups))
	for _, g := range groups {
		if g.Counts[m.Key] == 0 {
			continue
		}
		year, _ := strconv.Atoi(g.Key)
		out = append(out, YearValue{Year: year, Value: g.Value(m.Key)})
	}
	return out, nil
}
