package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViews_MissingAuthorRendersNull(t *testing.T) {
	views := map[string]any{
		"topic": TopicView{Topic: &Topic{ID: "t1"}},
		"post":  PostView{Post: &Post{ID: "p1"}},
	}
	for name, v := range views {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(v)
			require.NoError(t, err)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &fields))
			author, ok := fields["author"]
			require.True(t, ok, "author key must be present")
			assert.Equal(t, "null", string(author))
		})
	}
}

func TestAuthorOf_Views(t *testing.T) {
	assert.Nil(t, AuthorOf(nil, true))

	u := &User{ID: "u1", Username: "alice", Email: "a@example.com", Reputation: 7}
	assert.Nil(t, AuthorOf(u, false).Reputation)
	withRep := AuthorOf(u, true)
	require.NotNil(t, withRep.Reputation)
	assert.Equal(t, 7, *withRep.Reputation)
}
