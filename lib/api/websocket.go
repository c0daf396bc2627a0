package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(req *http.Request) bool {
		return true
	},
}

const statsInterval = 2 * time.Second

// @Summary	Open websocket for realtime status information
// @Router		/api/ws [get]
// @Param		Upgrade	header	string	true	"websocket"
// @Tags		base
// @Success	101
func (a *Api) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already replied to the client
		a.log.Warn(fmt.Sprintf("couldn't make websocket: %s", err))
		return
	}
	defer func(ws *websocket.Conn) {
		err := ws.Close()
		if err != nil {
			a.log.Debug(fmt.Sprintf("could not close websocket: %s", err))
		}
	}(ws)
	a.setClient(ws, true)

	done := make(chan struct{})
	defer close(done)
	go a.websocketWriter(ws, done)

	for {
		_, _, err := ws.ReadMessage()
		if err != nil {
			a.setClient(ws, false)
			break
		}
	}
}

func (a *Api) setClient(ws *websocket.Conn, connected bool) {
	a.wsMu.Lock()
	if connected {
		a.wsClients[ws] = true
	} else {
		delete(a.wsClients, ws)
	}
	n := len(a.wsClients)
	a.wsMu.Unlock()
	a.Stats.SetWsClients(n)
}

func (a *Api) websocketWriter(ws *websocket.Conn, done <-chan struct{}) {
	pingTicker := time.NewTicker(statsInterval)
	defer pingTicker.Stop()

	timeout := 10 * time.Second
	for {
		packet, err := json.Marshal(a.Stats)
		if err != nil {
			return
		}
		err = ws.SetWriteDeadline(time.Now().Add(timeout))
		if err != nil {
			a.log.Debug(fmt.Sprintf("could not set write deadline: %s", err))
			return
		}
		if err := ws.WriteMessage(websocket.TextMessage, packet); err != nil {
			return
		}

		select {
		case <-done:
			return
		case <-pingTicker.C:
		}
	}
}
