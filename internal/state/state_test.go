package state

import (
	"io"
	"log/slog"
	"testing"

	"statehold/pkg/gateway"
	"statehold/pkg/possible"
	"statehold/pkg/snowflake"
)

func newTestUpdater(t *testing.T) (*Updater, *Registry) {
	t.Helper()

	reg := NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewUpdater(reg, log), reg
}

func testShard() ShardID {
	return ShardID{Index: 0, Count: 1}
}

func guildChannel(id, guildID snowflake.ID) gateway.Channel {
	return gateway.Channel{
		ID:      id,
		Type:    gateway.ChannelTypeGuildText,
		GuildID: possible.Of(guildID),
		Name:    possible.Of("general"),
	}
}

func testUser(id snowflake.ID, name string) gateway.User {
	return gateway.User{ID: id, Username: name, Discriminator: "0"}
}

func testMember(userID snowflake.ID, name string, roles ...snowflake.ID) gateway.Member {
	return gateway.Member{
		User:     testUser(userID, name),
		Roles:    roles,
		JoinedAt: "2026-01-10T12:00:00Z",
	}
}
