package qstash_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeysRotate(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"POST /v2/keys/rotate": {Body: `{"current":"sig_b","next":"sig_c"}`},
	})

	keys, err := client.Keys.Rotate(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sig_b", keys.Current)
	require.Equal(t, "sig_c", keys.Next)
	require.Equal(t, http.MethodPost, fake.last(t).Method)
}
