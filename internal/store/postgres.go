package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/armeny007/participedia-api/internal/reconcile"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var articleTables = map[string]string{
	"case":         "cases",
	"method":       "methods",
	"organization": "organizations",
}

func articleTable(articleType string) (string, error) {
	table, ok := articleTables[articleType]
	if !ok {
		return "", fmt.Errorf("unknown article type %q", articleType)
	}
	return table, nil
}

func isJSONCategory(category reconcile.Category) bool {
	switch category {
	case reconcile.CategoryIDList, reconcile.CategoryKeyList,
		reconcile.CategoryMediaList, reconcile.CategorySourcedMediaList:
		return true
	}
	return false
}

// scanDest returns a scan destination suited to the field's column type.
func scanDest(field reconcile.Field) any {
	switch field.Category {
	case reconcile.CategoryText, reconcile.CategoryKey:
		return &sql.NullString{}
	case reconcile.CategoryInteger, reconcile.CategoryID:
		return &sql.NullInt64{}
	case reconcile.CategoryFloat:
		return &sql.NullFloat64{}
	case reconcile.CategoryBoolean, reconcile.CategoryYesNo:
		return &sql.NullBool{}
	case reconcile.CategoryDate:
		return &sql.NullTime{}
	default:
		// jsonb columns arrive as raw bytes, nil when NULL
		return &[]byte{}
	}
}

// valueFromDest converts a scanned column back into the field's typed value.
func valueFromDest(field reconcile.Field, dest any) (reconcile.Value, error) {
	switch d := dest.(type) {
	case *sql.NullString:
		if !d.Valid {
			return reconcile.Null(), nil
		}
		if field.Category == reconcile.CategoryKey {
			return reconcile.KeyValue(d.String), nil
		}
		return reconcile.TextValue(d.String), nil
	case *sql.NullInt64:
		if !d.Valid {
			return reconcile.Null(), nil
		}
		if field.Category == reconcile.CategoryID {
			return reconcile.IDValue(d.Int64), nil
		}
		return reconcile.IntValue(d.Int64), nil
	case *sql.NullFloat64:
		if !d.Valid {
			return reconcile.Null(), nil
		}
		return reconcile.FloatValue(d.Float64), nil
	case *sql.NullBool:
		if !d.Valid {
			return reconcile.Null(), nil
		}
		return reconcile.BoolValue(d.Bool), nil
	case *sql.NullTime:
		if !d.Valid {
			return reconcile.Null(), nil
		}
		return reconcile.DateValue(d.Time), nil
	case *[]byte:
		if len(*d) == 0 {
			return reconcile.Null(), nil
		}
		switch field.Category {
		case reconcile.CategoryIDList:
			var ids []int64
			if err := json.Unmarshal(*d, &ids); err != nil {
				return reconcile.Value{}, fmt.Errorf("decode %s: %w", field.Name, err)
			}
			return reconcile.IDListValue(ids), nil
		case reconcile.CategoryKeyList:
			var keys []string
			if err := json.Unmarshal(*d, &keys); err != nil {
				return reconcile.Value{}, fmt.Errorf("decode %s: %w", field.Name, err)
			}
			return reconcile.KeyListValue(keys), nil
		default:
			var media []reconcile.Media
			if err := json.Unmarshal(*d, &media); err != nil {
				return reconcile.Value{}, fmt.Errorf("decode %s: %w", field.Name, err)
			}
			return reconcile.MediaListValue(media), nil
		}
	}
	return reconcile.Value{}, fmt.Errorf("unexpected scan destination for %s", field.Name)
}

// sqlArg converts a typed value into a driver argument for the field's column.
func sqlArg(field reconcile.Field, value reconcile.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	switch value.Kind {
	case reconcile.KindText, reconcile.KindKey:
		return value.Text, nil
	case reconcile.KindInt, reconcile.KindID:
		return value.Int, nil
	case reconcile.KindFloat:
		return value.Float, nil
	case reconcile.KindBool:
		return value.Bool, nil
	case reconcile.KindDate:
		return value.Date, nil
	case reconcile.KindIDList:
		return jsonArg(field, value.IDs)
	case reconcile.KindKeyList:
		return jsonArg(field, value.Keys)
	case reconcile.KindMediaList:
		return jsonArg(field, value.Media)
	}
	return nil, fmt.Errorf("unexpected value kind for %s", field.Name)
}

func jsonArg(field reconcile.Field, v any) (any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", field.Name, err)
	}
	return string(encoded), nil
}
