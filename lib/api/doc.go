// Package api serves viewer statistics over HTTP.
//
//go:generate go tool swag init -g doc.go -d .,../stats,../geometry -o ../docs --outputTypes go
//
//	@title			meshview API
//	@version		1.0
//	@description	Statistics and geometry state of a running meshview
//	@BasePath		/
package api
