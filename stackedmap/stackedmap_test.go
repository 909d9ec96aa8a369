// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radicle-dev/radicle-registry/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)

	src := map[string]string{"base": "value"}
	sm := stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		v, ok := src[key.(string)]
		return v, ok, nil
	})

	v, ok, err := sm.Get("base")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("value", v)

	depth := sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("a", "2")
	sm.Put("b", "3")

	v, ok, _ = sm.Get("a")
	assert.True(ok)
	assert.Equal("2", v)

	sm.Pop()
	v, ok, _ = sm.Get("a")
	assert.True(ok)
	assert.Equal("1", v)

	_, ok, _ = sm.Get("b")
	assert.False(ok)

	sm.PopTo(depth)
	_, ok, _ = sm.Get("a")
	assert.False(ok)
}

func TestJournal(t *testing.T) {
	sm := stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		return nil, false, nil
	})

	sm.Push()
	sm.Put("a", "1")
	sm.Push()
	sm.Put("b", "2")
	sm.Pop() // discards "b"
	sm.Put("c", "3")

	var seen []string
	sm.Journal(func(k, v interface{}) bool {
		seen = append(seen, k.(string)+v.(string))
		return true
	})
	assert.Equal(t, []string{"a1", "c3"}, seen)
}
