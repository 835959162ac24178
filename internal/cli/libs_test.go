package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibsCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "m\n"},
		{[]string{"--backend", "multicore"}, "pthread\nm\n"},
		{[]string{"--backend", "cuda", "--flags"}, "-lcuda\n-lcudart\n-lnvrtc\n-lm\n"},
		{[]string{"--backend", "python"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			buf := &bytes.Buffer{}
			cmd := NewLibsCommand(&RootOptions{})
			cmd.SetOut(buf)
			cmd.SetArgs(tt.args)
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want, buf.String())
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		cmd := NewLibsCommand(&RootOptions{})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--backend", "fortran"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
