package catalog

import (
	"database/sql"
	"fmt"
	"strings"
)

// Dialect holds the catalog queries for one database engine.
//
// ListTables yields (table_name, table_description) and DescribeTable yields
// (column_name, column_type, column_description) ordered by ordinal position,
// restricted to columns that carry a description.
type Dialect struct {
	Name string
	// Engine and QueryLanguage name the database and its SQL dialect to the
	// model.
	Engine        string
	QueryLanguage string
	// Lexer is the syntax highlighter name for generated SQL.
	Lexer         string
	ListTables    string
	DescribeTable string
	tableArgs     func(name string) []any
}

// Args returns the bind arguments for DescribeTable.
func (d Dialect) Args(table string) []any {
	return d.tableArgs(table)
}

var SQLServer = Dialect{
	Name:          "sqlserver",
	Engine:        "Microsoft SQL Server",
	QueryLanguage: "T-SQL",
	Lexer:         "tsql",
	ListTables: `
		select
			quotename(schema_name(s.[schema_id])) + '.' + quotename(s.[name]) as table_name,
			cast(ep.[value] as nvarchar(4000)) as table_description
		from
			sys.tables s
		left join
			sys.extended_properties ep on ep.major_id = s.object_id
				and ep.minor_id = 0
				and ep.class_desc = 'OBJECT_OR_COLUMN'
				and ep.[name] = 'MS_Description'
		where
			s.type_desc = 'USER_TABLE'`,
	DescribeTable: `
		select
			quotename(c.name) as column_name,
			t.name as column_type,
			cast(ep.[value] as nvarchar(1000)) as column_description
		from
			sys.tables s
		inner join
			sys.extended_properties ep on ep.major_id = s.object_id
		inner join
			sys.columns c on ep.minor_id = c.column_id and ep.major_id = c.object_id
		inner join
			sys.types t on c.system_type_id = t.system_type_id and c.user_type_id = t.user_type_id
		where
			s.type_desc = 'USER_TABLE'
		and
			ep.minor_id > 0
		and
			ep.major_id = object_id(@TableName)
		and
			ep.class_desc = 'OBJECT_OR_COLUMN'
		and
			ep.[name] = 'MS_Description'
		order by
			c.column_id`,
	tableArgs: func(name string) []any {
		return []any{sql.Named("TableName", name)}
	},
}

var Postgres = Dialect{
	Name:          "postgres",
	Engine:        "PostgreSQL",
	QueryLanguage: "PostgreSQL",
	Lexer:         "postgresql",
	ListTables: `
		select
			quote_ident(n.nspname) || '.' || quote_ident(c.relname) as table_name,
			obj_description(c.oid, 'pg_class') as table_description
		from
			pg_catalog.pg_class c
		inner join
			pg_catalog.pg_namespace n on n.oid = c.relnamespace
		where
			c.relkind in ('r', 'p')
		and
			n.nspname not in ('pg_catalog', 'information_schema')
		and
			n.nspname not like 'pg_toast%'`,
	DescribeTable: `
		select
			quote_ident(a.attname) as column_name,
			format_type(a.atttypid, a.atttypmod) as column_type,
			d.description as column_description
		from
			pg_catalog.pg_attribute a
		inner join
			pg_catalog.pg_class c on c.oid = a.attrelid
		inner join
			pg_catalog.pg_description d on d.objoid = a.attrelid
				and d.objsubid = a.attnum
				and d.classoid = 'pg_catalog.pg_class'::regclass
		where
			c.relkind in ('r', 'p')
		and
			a.attrelid = to_regclass($1)
		and
			a.attnum > 0
		and
			not a.attisdropped
		order by
			a.attnum`,
	tableArgs: func(name string) []any {
		return []any{name}
	},
}

var DuckDB = Dialect{
	Name:          "duckdb",
	Engine:        "DuckDB",
	QueryLanguage: "DuckDB SQL",
	Lexer:         "sql",
	ListTables: `
		select
			schema_name || '.' || table_name as table_name,
			comment as table_description
		from
			duckdb_tables()
		where
			not internal
		and
			not temporary`,
	DescribeTable: `
		select
			column_name,
			data_type as column_type,
			comment as column_description
		from
			duckdb_columns()
		where
			not internal
		and
			comment is not null
		and
			comment <> ''
		and
			(schema_name || '.' || table_name = ? or (table_name = ? and schema_name = 'main'))
		order by
			column_index`,
	tableArgs: func(name string) []any {
		plain := unquoteIdent(name)
		return []any{plain, plain}
	},
}

// DialectFor returns the catalog dialect for a database driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case SQLServer.Name, "mssql":
		return SQLServer, nil
	case Postgres.Name, "postgresql", "pgx":
		return Postgres, nil
	case DuckDB.Name:
		return DuckDB, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
	}
}

// unquoteIdent strips [bracket] and "double quote" identifier quoting from each
// part of a dotted name.
func unquoteIdent(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(strings.TrimSuffix(p, "]"), "[")
		p = strings.TrimPrefix(strings.TrimSuffix(p, `"`), `"`)
		parts[i] = p
	}
	return strings.Join(parts, ".")
}
