package cmd

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterText(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("ada@example.com\r\nlast"), &out)

	got, err := p.Text("Email")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got)
	assert.Equal(t, "Email: ", out.String())

	got, err = p.Text("Again")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = p.Text("Empty")
	require.Error(t, err)
}

func TestPrompterPasswordFallsBackToText(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(" Secret1! \n"), &out)

	got, err := p.Password("Password")
	require.NoError(t, err)
	// surrounding spaces are kept, the workflows trim the current password themselves
	assert.Equal(t, " Secret1! ", got)
}

func stubTerminal(t *testing.T, read func(int) ([]byte, error)) *os.File {
	t.Helper()
	oldRead, oldIsTerminal := readPassword, isTerminal
	t.Cleanup(func() {
		readPassword, isTerminal = oldRead, oldIsTerminal
	})
	readPassword = read
	isTerminal = func(int) bool { return true }

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close() //nolint:errcheck
		w.Close() //nolint:errcheck
	})
	return r
}

func TestPrompterPasswordReadsFromTerminal(t *testing.T) {
	in := stubTerminal(t, func(int) ([]byte, error) {
		return []byte("hunter2"), nil
	})
	var out bytes.Buffer
	p := newPrompter(in, &out)

	got, err := p.Password("Password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
	assert.Equal(t, "Password: \n", out.String())
	assert.True(t, isInteractive(in))
}

func TestPrompterPasswordError(t *testing.T) {
	in := stubTerminal(t, func(int) ([]byte, error) {
		return nil, errors.New("boom")
	})
	p := newPrompter(in, &bytes.Buffer{})

	_, err := p.Password("Password")
	require.ErrorContains(t, err, "boom")
}

func TestIsInteractive(t *testing.T) {
	assert.False(t, isInteractive(strings.NewReader("")))
}
