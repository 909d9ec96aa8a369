// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"

	"github.com/radicle-dev/radicle-registry/registry"
)

func TestNewID(t *testing.T) {
	valid := []string{
		"a",
		"monadic",
		"radicle-registry",
		"a1b2c3",
		"x0",
		strings.Repeat("a", 32),
	}
	for _, s := range valid {
		id, err := registry.NewID(s)
		assert.NoError(t, err, s)
		assert.Equal(t, s, id.String())
	}

	invalid := []string{
		"",
		"-radicle",
		"radicle-",
		"Radicle",
		"rad icle",
		"123",
		"1-2-3",
		strings.Repeat("a", 33),
	}
	for _, s := range invalid {
		_, err := registry.NewID(s)
		assert.Error(t, err, s)
	}
}

func TestIDInordinate(t *testing.T) {
	_, err := registry.NewID(strings.Repeat("a", 40))
	var inordinate *registry.InordinateStringError
	assert.ErrorAs(t, err, &inordinate)
	assert.Equal(t, registry.IDMaxLength, inordinate.MaxLength)
}

func TestIDRLP(t *testing.T) {
	id := registry.MustNewID("monadic")
	data, err := rlp.EncodeToBytes(&id)
	assert.NoError(t, err)

	var decoded registry.ID
	assert.NoError(t, rlp.DecodeBytes(data, &decoded))
	assert.Equal(t, id, decoded)

	// a raw string violating the bound must not decode
	raw, _ := rlp.EncodeToBytes(strings.Repeat("a", 33))
	assert.Error(t, rlp.DecodeBytes(raw, &decoded))
}

func TestProjectID(t *testing.T) {
	pid := registry.ProjectID{
		Org:  registry.MustNewID("monadic"),
		Name: registry.MustNewProjectName("radicle"),
	}
	assert.Equal(t, "monadic/radicle", pid.String())
}
