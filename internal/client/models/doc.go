// Package models defines the catalog and session records exchanged with the
// bookstore API. JSON tags follow the server's wire names (`_id`, camelCase).
package models
