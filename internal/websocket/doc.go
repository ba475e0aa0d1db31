// Package websocket serves the dashboard's live channel.
//
// A browser opens /ws and sends dashboard events as JSON frames:
//
//	{"type":"tab_selected","tab":"page-2"}
//	{"type":"range_changed","min_year":2016,"max_year":2019}
//
// Each event is dispatched and answered on the same connection with
// {"type":"<event>:result","data":{...}} or {"type":"error","data":{...}}.
// The Hub tracks connected clients, reports the count to a ClientObserver
// and can broadcast to all of them.
package websocket
