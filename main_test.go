package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, execute(root))
	return out.String()
}

func TestMenuHidesPremiumForDemo(t *testing.T) {
	out := run(t, "menu", "--role", "teacher", "--disable", "library")
	var ids []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		ids = append(ids, strings.Fields(l)[0])
	}
	assert.Equal(t, []string{"dashboard", "academics", "students", "assistant"}, ids)
}

func TestDemoQuizCommand(t *testing.T) {
	out := run(t, "ai", "quiz", "Algebra", "--difficulty", "hard")
	assert.True(t, strings.HasPrefix(out, "Quiz (demo simulation)\nTopic: Algebra\nDifficulty: hard"))
}

func TestQuotaCommand(t *testing.T) {
	out := run(t, "quota", "--reset")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	for _, l := range lines {
		assert.Contains(t, l, "unused")
		assert.Contains(t, l, "3/3 left")
	}
}

func TestNarrateCommand(t *testing.T) {
	out := run(t, "narrate", "--locale", "ur-PK", "NOVA is here. Ask!")
	assert.Equal(t, "[ur-PK] نووا is here.\n[ur-PK] Ask!\n", out)
}

func TestRedisClosedWhenCommandFails(t *testing.T) {
	mr := miniredis.RunT(t)
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"menu", "--quota-backend", "redis", "--redis-addr", mr.Addr(), "--disable", "gym"})

	err := execute(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown module "gym"`)

	require.NotNil(t, cur)
	require.NotNil(t, cur.rdb)
	assert.ErrorIs(t, cur.rdb.Ping(context.Background()).Err(), redis.ErrClosed)
}

func TestRedisClosedAfterSuccess(t *testing.T) {
	mr := miniredis.RunT(t)
	out := run(t, "quota", "--quota-backend", "redis", "--redis-addr", mr.Addr())
	assert.Contains(t, out, "3/3 left")
	require.NotNil(t, cur.rdb)
	assert.ErrorIs(t, cur.rdb.Ping(context.Background()).Err(), redis.ErrClosed)
}
