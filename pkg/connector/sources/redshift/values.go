package redshift

import (
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/json"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

const (
	dateLayout         = "2006-01-02"
	startDateKeyLayout = "2006-01-02T15:04:05Z"
)

// temporalLayouts are tried in order when a bookmarked value is read back.
var temporalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

// coerceValue converts a driver value into its JSON representation for the
// column described by s.
func coerceValue(v interface{}, s *catalog.Schema) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if s != nil && s.Format == catalog.FormatDate {
			return t.Format(dateLayout)
		}
		return t.UTC().Format(time.RFC3339Nano)
	case pgtype.Numeric:
		return numericValue(t)
	case *pgtype.Numeric:
		if t == nil {
			return nil
		}
		return numericValue(*t)
	case decimal.Decimal:
		return json.Number(t.String())
	case pgtype.InfinityModifier:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return nil
		}
		return t
	case []byte:
		return string(t)
	}
	return v
}

func numericValue(n pgtype.Numeric) interface{} {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil
	}
	if n.Int == nil {
		return json.Number("0")
	}
	return json.Number(decimal.NewFromBigInt(n.Int, n.Exp).String())
}

// bindValue converts a bookmarked replication key value into a query
// parameter. Date and date-time keys are parsed back into time.Time.
// Numbers that do not fit an int64 stay exact.
func bindValue(v interface{}, s *catalog.Schema) (interface{}, error) {
	temporal := s != nil && (s.Format == catalog.FormatDateTime || s.Format == catalog.FormatDate)

	switch t := v.(type) {
	case string:
		if !temporal {
			return t, nil
		}
		parsed, err := parseTemporal(t)
		if err != nil {
			return nil, taperrors.Wrap(err, taperrors.ErrorTypeState, "invalid replication key value").
				WithDetail("value", t)
		}
		return parsed, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		// Bound as text so the server casts it to the column type unrounded.
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return nil, taperrors.Wrap(err, taperrors.ErrorTypeState, "invalid replication key value").
				WithDetail("value", t.String())
		}
		return d.String(), nil
	}
	return v, nil
}

func parseTemporal(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range temporalLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, firstErr
}
