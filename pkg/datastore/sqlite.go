package datastore

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteDatastore struct {
	db     *sql.DB
	config *Config
}

func NewSQLiteDatastore(config *Config) *SQLiteDatastore {
	db, err := sql.Open("sqlite3", config.DBName)
	if err != nil {
		panic(fmt.Errorf("failed to open database: %v", err))
	}

	// Create table if it doesn't exist.
	columnDefs := make([]string, 0, len(config.ColumnConfig))
	for name, typ := range config.ColumnConfig {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s", name, typ))
	}
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		config.TableName,
		strings.Join(columnDefs, ", "),
	)
	_, err = db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %v", config.TableName, err))
	}
	return &SQLiteDatastore{
		db:     db,
		config: config,
	}
}

func (ds *SQLiteDatastore) Close() error {
	return ds.db.Close()
}

func (ds *SQLiteDatastore) Get(key string, columns []string) (map[string]interface{}, error) {
	row := ds.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
			strings.Join(columns, ", "), ds.config.TableName, ds.config.PrimaryKeyColumnName),
		key,
	)

	// Prepare a slice to hold the values.
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		// We use the type information stored in the Config to create a variable of the correct type.
		var value interface{}
		switch columnKind(ds.config.ColumnConfig[column]) {
		case "TEXT":
			value = new(string)
		case "INT":
			// For simplicity, we use int64 for all integers.
			value = new(int64)
		default:
			return nil, fmt.Errorf("unsupported column type: %s", ds.config.ColumnConfig[column])
		}
		values[i] = value
	}

	// Scan the result into the values slice.
	err := row.Scan(values...)
	if err != nil {
		if err == sql.ErrNoRows {
			// There is no row with the given key.
			return nil, nil
		}
		return nil, err
	}

	// Prepare the result map and fill it with values.
	result := make(map[string]interface{})
	for i, column := range columns {
		// We use the reflect package to dereference the pointer.
		value := reflect.ValueOf(values[i]).Elem().Interface()
		result[column] = value
	}

	return result, nil
}

func (ds *SQLiteDatastore) Put(key string, values map[string]interface{}) error {
	columns := []string{ds.config.PrimaryKeyColumnName}
	placeholders := []string{"?"}
	args := []interface{}{key}
	for column, value := range values {
		if column == ds.config.PrimaryKeyColumnName {
			continue
		}
		columns = append(columns, column)
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}
	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		ds.config.TableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	_, err := ds.db.Exec(query, args...)
	return err
}

func (ds *SQLiteDatastore) Update(key string, values map[string]interface{}) error {
	assignments := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values)+1)
	for column, value := range values {
		assignments = append(assignments, fmt.Sprintf("%s = ?", column))
		args = append(args, value)
	}
	args = append(args, key)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		ds.config.TableName,
		strings.Join(assignments, ", "),
		ds.config.PrimaryKeyColumnName,
	)
	_, err := ds.db.Exec(query, args...)
	return err
}

func (ds *SQLiteDatastore) Delete(key string) error {
	_, err := ds.db.Exec(
		fmt.Sprintf(
			"DELETE FROM %s WHERE %s = ?", ds.config.TableName, ds.config.PrimaryKeyColumnName),
		key)
	return err
}

func (ds *SQLiteDatastore) ListAll(columns []string) (map[string]map[string]interface{}, error) {
	selected := "*"
	if len(columns) > 0 {
		withPk := columns
		if !containsColumn(columns, ds.config.PrimaryKeyColumnName) {
			withPk = append([]string{ds.config.PrimaryKeyColumnName}, columns...)
		}
		selected = strings.Join(withPk, ", ")
	}
	rows, err := ds.db.Query(fmt.Sprintf("SELECT %s FROM %s", selected, ds.config.TableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make(map[string]map[string]interface{})
	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePointers := make([]interface{}, len(cols))
		for i := range values {
			valuePointers[i] = &values[i]
		}

		if err := rows.Scan(valuePointers...); err != nil {
			return nil, err
		}

		m := make(map[string]interface{})
		for i, colName := range cols {
			val := valuePointers[i].(*interface{})
			m[colName] = *val
		}

		key, ok := m[ds.config.PrimaryKeyColumnName].(string)
		if !ok {
			continue
		}
		results[key] = m
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// columnKind "TEXT PRIMARY KEY NOT NULL" -> "TEXT"
func columnKind(typ string) string {
	if strings.HasPrefix(typ, "TEXT") {
		return "TEXT"
	}
	if strings.HasPrefix(typ, "INT") {
		return "INT"
	}
	return ""
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
