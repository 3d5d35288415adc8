/*
MIT License

Copyright (c) 2026 the isy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package wire implements the plain-text UDP datagram grammar shared by the
// directory, group daemon, and client: parsing of inbound requests and
// formatting of outbound replies/broadcasts. Every datagram except the
// LIST and CMD LIST replies (one line per entry) is a single
// whitespace-delimited line; the final field of a handful of message kinds
// is the remainder of the datagram and may itself contain spaces.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Field length limits enforced by the grammar.
const (
	MaxNameLen = 31
	MaxUserLen = 19
	TokenLen   = 32
)

// DirectoryRequestKind enumerates the control-plane request grammar.
type DirectoryRequestKind uint8

const (
	DirUnknown DirectoryRequestKind = iota
	DirList
	DirCreate
	DirJoin
	DirMerge
	// DirMergeSyntax is a MERGE whose field count is wrong; the directory
	// answers it with its dedicated merge_syntax reason rather than the
	// generic unknown_cmd.
	DirMergeSyntax
)

// DirectoryRequest is a parsed control-plane datagram sent to the Directory.
type DirectoryRequest struct {
	Kind DirectoryRequestKind

	// CREATE / JOIN
	Name string
	User string

	// JOIN
	IP   string
	Port string

	// MERGE
	TokenA string
	GroupA string
	TokenB string
	GroupB string
}

// ParseDirectoryRequest parses a single control-plane datagram. A MERGE with
// the wrong field count yields DirMergeSyntax; any other malformed or
// unrecognized request yields DirUnknown, and the caller replies ERR
// unknown_cmd.
func ParseDirectoryRequest(raw string) DirectoryRequest {
	f := strings.Fields(raw)
	if len(f) == 0 {
		return DirectoryRequest{Kind: DirUnknown}
	}

	switch strings.ToUpper(f[0]) {
	case "LIST":
		return DirectoryRequest{Kind: DirList}

	case "CREATE":
		if len(f) == 2 {
			return DirectoryRequest{Kind: DirCreate, Name: f[1]}
		}
		if len(f) == 3 {
			return DirectoryRequest{Kind: DirCreate, Name: f[1], User: f[2]}
		}
		return DirectoryRequest{Kind: DirUnknown}

	case "JOIN":
		if len(f) != 5 {
			return DirectoryRequest{Kind: DirUnknown}
		}
		return DirectoryRequest{Kind: DirJoin, Name: f[1], User: f[2], IP: f[3], Port: f[4]}

	case "MERGE":
		if len(f) != 6 {
			return DirectoryRequest{Kind: DirMergeSyntax}
		}
		return DirectoryRequest{
			Kind:   DirMerge,
			User:   f[1],
			TokenA: f[2],
			GroupA: f[3],
			TokenB: f[4],
			GroupB: f[5],
		}

	default:
		return DirectoryRequest{Kind: DirUnknown}
	}
}

// FormatListRequest, FormatCreateRequest, FormatJoinRequest, and
// FormatMergeRequest render the client's outbound control-plane datagrams,
// the mirror image of ParseDirectoryRequest.
func FormatListRequest() string { return "LIST" }

func FormatCreateRequest(name, user string) string {
	if user == "" {
		return fmt.Sprintf("CREATE %s", name)
	}
	return fmt.Sprintf("CREATE %s %s", name, user)
}

func FormatJoinRequest(name, user, ip string, port int) string {
	return fmt.Sprintf("JOIN %s %s %s %d", name, user, ip, port)
}

func FormatMergeRequest(user, tokenA, groupA, tokenB, groupB string) string {
	return fmt.Sprintf("MERGE %s %s %s %s %s", user, tokenA, groupA, tokenB, groupB)
}

// DirectoryReplyKind enumerates the control-plane reply grammar, as
// observed by a client.
type DirectoryReplyKind uint8

const (
	ReplyUnknown DirectoryReplyKind = iota
	ReplyList
	ReplyOK
	ReplyErr
)

// DirectoryReply is a parsed reply datagram from the Directory.
type DirectoryReply struct {
	Kind DirectoryReplyKind

	Entries []ListEntry // ReplyList

	// CREATE/JOIN/MERGE OK
	Name   string
	Port   int
	Token  string
	GroupA string
	GroupB string

	Reason string // ReplyErr
}

// ParseDirectoryReply parses a Directory reply datagram from the client's
// point of view.
func ParseDirectoryReply(raw string) DirectoryReply {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DirectoryReply{Kind: ReplyUnknown}
	}

	if trimmed == "(aucun)" {
		return DirectoryReply{Kind: ReplyList}
	}

	if strings.HasPrefix(trimmed, "ERR ") {
		return DirectoryReply{Kind: ReplyErr, Reason: strings.TrimPrefix(trimmed, "ERR ")}
	}

	if strings.HasPrefix(trimmed, "OK MERGE ") {
		f := strings.Fields(strings.TrimPrefix(trimmed, "OK MERGE "))
		if len(f) != 2 {
			return DirectoryReply{Kind: ReplyUnknown}
		}
		return DirectoryReply{Kind: ReplyOK, GroupA: f[0], GroupB: f[1]}
	}

	if strings.HasPrefix(trimmed, "OK ") {
		f := strings.Fields(strings.TrimPrefix(trimmed, "OK "))
		if len(f) < 2 {
			return DirectoryReply{Kind: ReplyUnknown}
		}
		port, err := strconv.Atoi(f[1])
		if err != nil {
			return DirectoryReply{Kind: ReplyUnknown}
		}
		r := DirectoryReply{Kind: ReplyOK, Name: f[0], Port: port}
		if len(f) >= 3 {
			r.Token = f[2]
		}
		return r
	}

	// Anything else is either a LIST reply body or unrecognized noise; a
	// LIST reply body is one "<name> <port>" line per group.
	entries := make([]ListEntry, 0)
	for _, line := range strings.Split(trimmed, "\n") {
		f := strings.Fields(line)
		if len(f) != 2 {
			continue
		}
		port, err := strconv.Atoi(f[1])
		if err != nil {
			continue
		}
		entries = append(entries, ListEntry{Name: f[0], Port: port})
	}
	if len(entries) == 0 {
		return DirectoryReply{Kind: ReplyUnknown}
	}
	return DirectoryReply{Kind: ReplyList, Entries: entries}
}

// FormatListReply renders the LIST success reply: one "<name> <port>" line
// per group, or the "(aucun)" sentinel when the registry is empty.
func FormatListReply(entries []ListEntry) string {
	if len(entries) == 0 {
		return "(aucun)"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %d", e.Name, e.Port))
	}
	return strings.Join(lines, "\n")
}

// ListEntry is one row of a LIST reply.
type ListEntry struct {
	Name string
	Port int
}

// FormatCreateOK renders the CREATE success reply, with or without a token.
func FormatCreateOK(name string, port int, token string) string {
	if token == "" {
		return fmt.Sprintf("OK %s %d", name, port)
	}
	return fmt.Sprintf("OK %s %d %s", name, port, token)
}

// FormatJoinOK renders the JOIN success reply.
func FormatJoinOK(name string, port int) string {
	return fmt.Sprintf("OK %s %d", name, port)
}

// FormatMergeOK renders the MERGE success reply.
func FormatMergeOK(groupA, groupB string) string {
	return fmt.Sprintf("OK MERGE %s %s", groupA, groupB)
}

// FormatErr renders an ERR reply with the given reason token.
func FormatErr(reason string) string {
	return "ERR " + reason
}

// GroupMessageKind enumerates the group-socket message grammar.
type GroupMessageKind uint8

const (
	GroupUnknown GroupMessageKind = iota
	GroupMsg
	// GroupCmdBadArgs is a recognized CMD verb with a wrong field count;
	// GroupCmdUnknown is a CMD verb the grammar does not know. Both get an
	// ERR reply, unlike GroupUnknown which is dropped silently.
	GroupCmdBadArgs
	GroupCmdUnknown
	GroupCmdBan
	GroupCmdUnban
	GroupCmdBan2
	GroupCmdUnban2
	GroupCmdList
	GroupCmdDelete
	GroupCtrlBannerSet
	GroupCtrlBannerClr
	GroupCtrlIBannerSet
	GroupCtrlIBannerClr
	GroupCtrlSetToken
	GroupCtrlRedirect
	GroupSys
)

// GroupMessage is a parsed datagram received on a group's UDP port, whether
// it originates from a client (MSG/CMD) or from the directory's loopback
// administrative channel (CTRL/SYS).
type GroupMessage struct {
	Kind GroupMessageKind

	User string
	Text string

	Token      string
	AdminUser  string
	TargetUser string

	NewGroup string
	NewPort  string
	Reason   string
}

// ParseGroupMessage parses a single datagram received on a group's socket.
func ParseGroupMessage(raw string) GroupMessage {
	switch {
	case strings.HasPrefix(raw, "MSG "):
		rest := strings.TrimPrefix(raw, "MSG ")
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) != 2 {
			return GroupMessage{Kind: GroupUnknown}
		}
		return GroupMessage{Kind: GroupMsg, User: parts[0], Text: parts[1]}

	case strings.HasPrefix(raw, "CMD "):
		return parseCmd(strings.TrimPrefix(raw, "CMD "))

	case strings.HasPrefix(raw, "CTRL "):
		return parseCtrl(strings.TrimPrefix(raw, "CTRL "))

	case strings.HasPrefix(raw, "SYS "):
		return GroupMessage{Kind: GroupSys, Text: strings.TrimPrefix(raw, "SYS ")}

	default:
		return GroupMessage{Kind: GroupUnknown}
	}
}

func parseCmd(rest string) GroupMessage {
	f := strings.Fields(rest)
	if len(f) == 0 {
		return GroupMessage{Kind: GroupCmdBadArgs}
	}

	switch strings.ToUpper(f[0]) {
	case "LIST":
		return GroupMessage{Kind: GroupCmdList}

	case "DELETE":
		if len(f) != 2 {
			return GroupMessage{Kind: GroupCmdBadArgs}
		}
		return GroupMessage{Kind: GroupCmdDelete, TargetUser: f[1]}

	case "BAN":
		if len(f) != 3 {
			return GroupMessage{Kind: GroupCmdBadArgs}
		}
		return GroupMessage{Kind: GroupCmdBan, Token: f[1], TargetUser: f[2]}

	case "UNBAN":
		if len(f) != 3 {
			return GroupMessage{Kind: GroupCmdBadArgs}
		}
		return GroupMessage{Kind: GroupCmdUnban, Token: f[1], TargetUser: f[2]}

	case "BAN2":
		if len(f) != 4 {
			return GroupMessage{Kind: GroupCmdBadArgs}
		}
		return GroupMessage{Kind: GroupCmdBan2, Token: f[1], AdminUser: f[2], TargetUser: f[3]}

	case "UNBAN2":
		if len(f) != 4 {
			return GroupMessage{Kind: GroupCmdBadArgs}
		}
		return GroupMessage{Kind: GroupCmdUnban2, Token: f[1], AdminUser: f[2], TargetUser: f[3]}

	default:
		return GroupMessage{Kind: GroupCmdUnknown}
	}
}

func parseCtrl(rest string) GroupMessage {
	switch {
	case rest == "BANNER_CLR":
		return GroupMessage{Kind: GroupCtrlBannerClr}
	case rest == "IBANNER_CLR":
		return GroupMessage{Kind: GroupCtrlIBannerClr}
	case strings.HasPrefix(rest, "BANNER_SET "):
		return GroupMessage{Kind: GroupCtrlBannerSet, Text: strings.TrimPrefix(rest, "BANNER_SET ")}
	case strings.HasPrefix(rest, "IBANNER_SET "):
		return GroupMessage{Kind: GroupCtrlIBannerSet, Text: strings.TrimPrefix(rest, "IBANNER_SET ")}
	case strings.HasPrefix(rest, "SETTOKEN "):
		return GroupMessage{Kind: GroupCtrlSetToken, Token: strings.TrimPrefix(rest, "SETTOKEN ")}
	case strings.HasPrefix(rest, "REDIRECT "):
		f := strings.SplitN(strings.TrimPrefix(rest, "REDIRECT "), " ", 3)
		if len(f) < 2 {
			return GroupMessage{Kind: GroupUnknown}
		}
		m := GroupMessage{Kind: GroupCtrlRedirect, NewGroup: f[0], NewPort: f[1]}
		if len(f) == 3 {
			m.Reason = f[2]
		} else {
			m.Reason = "merge"
		}
		return m
	default:
		return GroupMessage{Kind: GroupUnknown}
	}
}

// FormatBroadcast renders a chat fan-out line, including the sender.
func FormatBroadcast(group, user, text string) string {
	return fmt.Sprintf("GROUPE[%s]: Message de %s : %s", group, user, text)
}

// FormatBroadcastSys renders a non-sticky server announcement fan-out line.
func FormatBroadcastSys(group, text string) string {
	return fmt.Sprintf("GROUPE[%s]: Message de [SERVER] : %s", group, text)
}

// FormatBannerSet renders an (I)BANNER_SET control datagram.
func FormatBannerSet(idle bool, text string) string {
	if idle {
		return "CTRL IBANNER_SET " + text
	}
	return "CTRL BANNER_SET " + text
}

// FormatBannerClr renders an (I)BANNER_CLR control datagram.
func FormatBannerClr(idle bool) string {
	if idle {
		return "CTRL IBANNER_CLR"
	}
	return "CTRL BANNER_CLR"
}

// FormatSetToken renders a SETTOKEN control datagram.
func FormatSetToken(token string) string {
	return "CTRL SETTOKEN " + token
}

// FormatRedirect renders a REDIRECT control datagram.
func FormatRedirect(newGroup string, newPort int, reason string) string {
	if reason == "" {
		reason = "merge"
	}
	return fmt.Sprintf("CTRL REDIRECT %s %d %s", newGroup, newPort, reason)
}

// FormatSys renders a non-sticky SYS datagram (directory -> group).
func FormatSys(text string) string {
	return "SYS " + text
}

// FormatMsg renders the client attach/detach/chat datagram sent to a group.
func FormatMsg(user, text string) string {
	return fmt.Sprintf("MSG %s %s", user, text)
}

const (
	// Sentinel texts for the attach/detach handshake.
	SentinelJoined = "(joined)"
	SentinelLeft   = "(left)"
)

// MemberEntry is one row of a CMD LIST reply on a group's socket.
type MemberEntry struct {
	User string
	Addr string
}

// FormatGroupListReply renders the CMD LIST reply, matching the Directory's
// own LIST shape: one "<user> <ip>:<port>" line per member, or "(aucun)".
func FormatGroupListReply(entries []MemberEntry) string {
	if len(entries) == 0 {
		return "(aucun)"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s %s", e.User, e.Addr))
	}
	return strings.Join(lines, "\n")
}

// FormatOK renders a plain "OK <text>" reply to a CMD issuer.
func FormatOK(text string) string {
	if text == "" {
		return "OK"
	}
	return "OK " + text
}

// FormatBanAudit renders the audit line broadcast on a successful ban.
func FormatBanAudit(admin, victim string) string {
	return fmt.Sprintf("[Action] (%s) a banni (%s)", admin, victim)
}

// FormatUnbanAudit renders the audit line broadcast on a successful unban.
func FormatUnbanAudit(admin, victim string) string {
	return fmt.Sprintf("[Action] (%s) a debanni (%s)", admin, victim)
}

// FormatBroadcastAudit renders a moderation audit line as a group broadcast.
// Unlike FormatBroadcastSys, it is not wrapped in the generic
// "Message de [SERVER] :" template: the audit line itself is the payload.
func FormatBroadcastAudit(group, audit string) string {
	return fmt.Sprintf("GROUPE[%s]: %s", group, audit)
}
