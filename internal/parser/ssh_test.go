package parser

import (
	"authviz/internal/types"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHParser_Extract_InvalidUser(t *testing.T) {
	parser := NewSSHParser()

	line := "Jan 5 10:00:01 host sshd[1]: Invalid user admin from 203.0.113.5"
	m, ok := parser.Extract(line)

	require.True(t, ok, "expected a match")
	assert.Equal(t, "admin", m.User)
	assert.Equal(t, "203.0.113.5", m.Address)
	assert.Equal(t, types.PatternInvalidUser, m.Pattern)
}

func TestSSHParser_Extract_NotAllowed(t *testing.T) {
	parser := NewSSHParser()

	line := "Mar 12 04:11:09 bastion sshd[912]: User deploy from 198.51.100.7 not allowed because not listed in AllowUsers"
	m, ok := parser.Extract(line)

	require.True(t, ok)
	assert.Equal(t, "deploy", m.User)
	assert.Equal(t, "198.51.100.7", m.Address)
	assert.Equal(t, types.PatternNotAllowed, m.Pattern)
}

func TestSSHParser_Extract_Variants(t *testing.T) {
	parser := NewSSHParser()

	tests := []struct {
		name string
		line string
		user string
		addr string
	}{
		{
			name: "port suffix",
			line: "Jan 5 10:00:01 host sshd[1]: Invalid user oracle from 203.0.113.5 port 52944",
			user: "oracle",
			addr: "203.0.113.5",
		},
		{
			name: "digits in user",
			line: "Jan 5 10:00:01 host sshd[1]: Invalid user user123 from 203.0.113.9",
			user: "user123",
			addr: "203.0.113.9",
		},
		{
			name: "resolved hostname",
			line: "Jan 5 10:00:01 host sshd[1]: Invalid user test from scanner-7.example.net",
			user: "test",
			addr: "scanner-7.example.net",
		},
		{
			name: "ipv6",
			line: "Jan 5 10:00:01 host sshd[1]: Invalid user pi from 2001:db8::42 port 22",
			user: "pi",
			addr: "2001:db8::42",
		},
		{
			name: "allowusers hostname",
			line: "Jan 5 10:00:01 host sshd[1]: User git2 from ci.example.org not allowed because not listed in AllowUsers",
			user: "git2",
			addr: "ci.example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := parser.Extract(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.user, m.User)
			assert.Equal(t, tt.addr, m.Address)
		})
	}
}

func TestSSHParser_Extract_NoMatch(t *testing.T) {
	parser := NewSSHParser()

	lines := []string{
		"This is not an SSH log line",
		"Jan 5 10:00:03 host sshd[1]: Accepted publickey for alice from 203.0.113.8 port 50000 ssh2",
		"Jan 5 10:00:04 host sshd[1]: Failed password for root from 203.0.113.8 port 50000 ssh2",
		"Jan 5 10:00:05 host sshd[1]: Invalid user  from 203.0.113.8 port 50000",
		"",
	}

	for _, line := range lines {
		m, ok := parser.Extract(line)
		assert.False(t, ok, "line %q should not match", line)
		assert.Empty(t, m.User)
		assert.Empty(t, m.Address)
	}
}

func TestTimestampParser_Syslog(t *testing.T) {
	p := NewTimestampParser()

	ts, err := p.Parse("Jan  5 10:00:01 host sshd[1]: Invalid user admin from 203.0.113.5", 2024, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 5, 10, 0, 1, 0, time.UTC), ts)

	ts, err = p.Parse("Dec 31 23:59:59 host sshd[1]: x", 2019, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, time.December, 31, 23, 59, 59, 0, time.UTC), ts)
}

func TestTimestampParser_RFC3339(t *testing.T) {
	p := NewTimestampParser()

	ts, err := p.Parse("2023-07-14T08:30:00.123456+02:00 host sshd[1]: Invalid user a from 203.0.113.5", 2024, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2023, ts.Year())
	assert.True(t, ts.Equal(time.Date(2023, time.July, 14, 6, 30, 0, 123456000, time.UTC)))
	assert.Equal(t, 6, ts.Hour(), "converted to the configured zone")
}

func TestTimestampParser_Failures(t *testing.T) {
	p := NewTimestampParser()

	lines := []string{
		"host sshd[1]: Invalid user admin from 203.0.113.5",
		"Feb 30 10:00:01 host sshd[1]: Invalid user admin from 203.0.113.5",
		"Jan 5 25:00:01 host sshd[1]: Invalid user admin from 203.0.113.5",
	}

	for _, line := range lines {
		_, err := p.Parse(line, 2024, time.UTC)
		require.Error(t, err, line)
		assert.True(t, errors.Is(err, types.ErrDateParse), line)
	}
}
