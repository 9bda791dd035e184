// Package sqlhelper is a small, table-oriented SQL helper for Go
// services, based on github.com/jmoiron/sqlx.
//
// It builds flat SQL text for the five operations most handlers need
// (insert, expose, exist, delete and update), escapes every value that
// goes into the text, runs it on a pooled connection and hands back plain
// rows. It does not bind parameters, manage transactions or migrate
// schemas; it composes and executes SQL strings.
//
// Every call creates its own statement value. Nothing is shared between
// two calls, so handlers running concurrently can never see each other's
// conditions or values. A statement is single-use: once executed, its
// state is cleared and running it again fails with ErrStatementConsumed.
//
// Failures never panic. A write that matched no rows, a query the
// database rejected (QueryError) and a database that could not be reached
// (ConnectionError) are told apart through the returned error, and every
// failure is logged with the offending SQL.
//
//		import (
//			"context"
//			"fmt"
//
//			"github.com/ido50/sqlhelper"
//			_ "github.com/go-sql-driver/mysql"
//		)
//
//		func main() {
//			ctx := context.Background()
//			db, err := sqlhelper.Open(ctx, sqlhelper.Config{
//				Driver:   "mysql",
//				DSN:      "user:password@tcp(localhost:3306)/shop",
//				Database: "shop",
//			})
//			if err != nil {
//				panic(err)
//			}
//
//			ok, err := db.Insert(ctx, "users", map[string]interface{}{
//				"name":  "O'Brien",
//				"email": "obrien@example.com",
//			})
//			if err != nil {
//				panic(err)
//			}
//
//			rows, err := db.Table("users").Expose(sqlhelper.ExposeOptions{
//				Fields:  []string{"id", "name"},
//				Where:   map[string]interface{}{"name": "O'Brien"},
//				OrderBy: []sqlhelper.OrderColumn{sqlhelper.Desc("id")},
//				Page:    1,
//			}).GetAll(ctx)
//			if err != nil {
//				panic(err)
//			}
//
//			fmt.Println(ok, rows)
//		}
package sqlhelper
