// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package network

import (
	"fmt"
	"sync/atomic"

	"github.com/algorand/go-herder/protocol"
)

// Multiplexer is a message handler that sorts incoming messages by Tag and passes
// them along to the relevant message handler for that type of message.
type Multiplexer struct {
	msgHandlers atomic.Value // stores map[protocol.Tag]MessageHandler, an immutable map.
}

// MakeMultiplexer creates an empty Multiplexer
func MakeMultiplexer() *Multiplexer {
	m := &Multiplexer{}
	m.ClearHandlers(nil)
	return m
}

func (m *Multiplexer) getHandlersMap() map[protocol.Tag]MessageHandler {
	if handlers, valid := m.msgHandlers.Load().(map[protocol.Tag]MessageHandler); valid {
		return handlers
	}
	return nil
}

// Handle is the "input" side of the multiplexer. It dispatches the message to the previously defined handler.
// It reports whether a handler was registered for the message tag.
func (m *Multiplexer) Handle(msg IncomingMessage) bool {
	handler, ok := m.getHandlersMap()[msg.Tag]
	if !ok {
		return false
	}
	handler.Handle(msg)
	return true
}

// RegisterHandlers registers the set of given message handlers.
func (m *Multiplexer) RegisterHandlers(dispatch []TaggedMessageHandler) {
	mp := make(map[protocol.Tag]MessageHandler)
	for k, v := range m.getHandlersMap() {
		mp[k] = v
	}
	for _, v := range dispatch {
		if _, has := mp[v.Tag]; has {
			panic(fmt.Sprintf("Already registered a handler for tag %v", v.Tag))
		}
		mp[v.Tag] = v.MessageHandler
	}
	m.msgHandlers.Store(mp)
}

// ClearHandlers deregisters all the existing message handlers other than the one provided in the excludeList
func (m *Multiplexer) ClearHandlers(excludeList []protocol.Tag) {
	mp := make(map[protocol.Tag]MessageHandler)
	current := m.getHandlersMap()
	for _, tag := range excludeList {
		if handler, has := current[tag]; has {
			mp[tag] = handler
		}
	}
	m.msgHandlers.Store(mp)
}
