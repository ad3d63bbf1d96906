package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySource_PublishSubscribeClose(t *testing.T) {
	src := NewMemorySource()
	ctx := context.Background()

	a, err := src.Subscribe(ctx, ProjectsChannel)
	require.NoError(t, err)
	b, err := src.Subscribe(ctx, ProjectsChannel)
	require.NoError(t, err)
	other, err := src.Subscribe(ctx, "other")
	require.NoError(t, err)

	require.Equal(t, 2, src.Publish(ProjectsChannel, []byte(`{"type":"INSERT"}`)))
	require.Equal(t, `{"type":"INSERT"}`, string((<-a.C()).Payload))
	require.Equal(t, ProjectsChannel, (<-b.C()).Channel)
	require.Len(t, other.C(), 0)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, open := <-a.C()
	require.False(t, open)
	require.Equal(t, 1, src.Subscribers(ProjectsChannel))

	require.NoError(t, src.Close())
	_, open = <-b.C()
	require.False(t, open)
	require.NoError(t, b.Close())
}

func TestDecodeChange(t *testing.T) {
	payload, err := EncodeChange("UPDATE", map[string]string{"id": "p1"}, map[string]string{"id": "p1"})
	require.NoError(t, err)

	c, err := DecodeChange(Notification{Channel: ProjectsChannel, Payload: payload})
	require.NoError(t, err)
	require.Equal(t, "UPDATE", c.Type)
	require.JSONEq(t, `{"id":"p1"}`, string(c.Record))

	_, err = DecodeChange(Notification{Channel: ProjectsChannel, Payload: []byte(`{}`)})
	require.Error(t, err)
	_, err = DecodeChange(Notification{Channel: ProjectsChannel, Payload: []byte(`not json`)})
	require.Error(t, err)
}
