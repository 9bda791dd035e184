package dispatch

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ido50/sqlhelper"
)

// HealthController reports whether the database is reachable, along with
// connection pool statistics.
func HealthController() Controller {
	return Controller{
		IndexAction: func(c *Context) Response {
			if err := c.DB.HealthCheck(c.Request.Context()); err != nil {
				return FromError(err)
			}

			stats := c.DB.PoolStats()
			return OK(gin.H{
				"database": "up",
				"open":     stats.OpenConnections,
				"in_use":   stats.InUse,
				"idle":     stats.Idle,
			})
		},
	}
}

// reserved query parameters of the table controller; all others are
// equality filters
var reserved = map[string]bool{
	"table":  true,
	"page":   true,
	"limit":  true,
	"offset": true,
	"order":  true,
	"desc":   true,
}

// TableController exposes the builder facade over HTTP. The table is
// selected with the "table" query parameter:
//
//	GET  /table?table=users&page=2&limit=10&order=id&active=1
//	GET  /table/exist?table=users&email=a@b.c
//	POST /table/insert?table=users          {"name": "x"}
//	POST /table/update?table=users          {"set": {...}, "where": {...}}
//	POST /table/delete?table=users          {"id": 5}
func TableController() Controller {
	return Controller{
		IndexAction: exposeAction,
		"exist":     existAction,
		"insert":    insertAction,
		"update":    updateAction,
		"delete":    deleteAction,
	}
}

func exposeAction(c *Context) Response {
	opts := sqlhelper.ExposeOptions{Where: filters(c)}

	var err error
	if opts.Page, err = intParam(c, "page"); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}
	if opts.Limit, err = intParam(c, "limit"); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}
	if opts.Offset, err = intParam(c, "offset"); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}
	if order := c.Query("order"); order != "" {
		if desc, _ := strconv.ParseBool(c.Query("desc")); desc {
			opts.OrderBy = []sqlhelper.OrderColumn{sqlhelper.Desc(order)}
		} else {
			opts.OrderBy = []sqlhelper.OrderColumn{sqlhelper.Asc(order)}
		}
	}

	rows, err := c.DB.Expose(c.Request.Context(), c.Query("table"), opts)
	if err != nil {
		return FromError(err)
	}
	return OK(rows)
}

func existAction(c *Context) Response {
	exists, err := c.DB.Exist(c.Request.Context(), c.Query("table"), filters(c))
	if err != nil {
		return FromError(err)
	}
	return OK(gin.H{"exists": exists})
}

func insertAction(c *Context) Response {
	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}

	res, err := c.DB.Table(c.Query("table")).Insert(values).Exec(c.Request.Context())
	if err != nil {
		return FromError(err)
	}
	return Created(gin.H{"id": res.LastInsertID})
}

func updateAction(c *Context) Response {
	var body struct {
		Set   map[string]interface{} `json:"set"`
		Where map[string]interface{} `json:"where"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}

	return affected(c.DB.Update(c.Request.Context(), c.Query("table"), body.Set, body.Where))
}

func deleteAction(c *Context) Response {
	var where map[string]interface{}
	if err := c.ShouldBindJSON(&where); err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}

	return affected(c.DB.Delete(c.Request.Context(), c.Query("table"), where))
}

// ProcedureController lists and calls stored procedures.
//
//	GET  /procedures
//	POST /procedures/call?name=get_user     {"args": [5]}
func ProcedureController() Controller {
	return Controller{
		IndexAction: func(c *Context) Response {
			procs := c.DB.Procedures()
			if procs == nil {
				return FromError(sqlhelper.ErrProceduresDisabled)
			}
			return OK(procs.Names())
		},
		"call": func(c *Context) Response {
			var body struct {
				Args []interface{} `json:"args"`
			}
			if c.Request.ContentLength != 0 {
				if err := c.ShouldBindJSON(&body); err != nil {
					return Fail(http.StatusBadRequest, err.Error())
				}
			}

			rows, err := c.DB.Call(c.Request.Context(), c.Query("name"), body.Args...)
			if err != nil {
				return FromError(err)
			}
			return OK(rows)
		},
	}
}

func affected(ok bool, err error) Response {
	switch {
	case err != nil:
		return FromError(err)
	case !ok:
		return Fail(http.StatusNotFound, "no rows affected")
	default:
		return OK(gin.H{"affected": true})
	}
}

func filters(c *Context) map[string]interface{} {
	where := make(map[string]interface{})
	for key, vals := range c.Request.URL.Query() {
		if reserved[key] || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			where[key] = vals[0]
		} else {
			where[key] = vals
		}
	}
	return where
}

func intParam(c *Context, name string) (int, error) {
	val := c.Query(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, val)
	}
	return n, nil
}
