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

package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatfabric/isy/internal/wire"
)

var _ = Describe("directory request/reply grammar", func() {
	It("parses LIST", func() {
		req := wire.ParseDirectoryRequest("LIST")
		Expect(req.Kind).To(Equal(wire.DirList))
	})

	It("parses CREATE with and without a user", func() {
		Expect(wire.ParseDirectoryRequest("CREATE salon1").Kind).To(Equal(wire.DirCreate))
		req := wire.ParseDirectoryRequest("CREATE salon1 alice")
		Expect(req.Kind).To(Equal(wire.DirCreate))
		Expect(req.Name).To(Equal("salon1"))
		Expect(req.User).To(Equal("alice"))
	})

	It("parses JOIN", func() {
		req := wire.ParseDirectoryRequest("JOIN salon1 bob 10.0.0.5 4000")
		Expect(req.Kind).To(Equal(wire.DirJoin))
		Expect(req.Name).To(Equal("salon1"))
		Expect(req.User).To(Equal("bob"))
		Expect(req.IP).To(Equal("10.0.0.5"))
		Expect(req.Port).To(Equal("4000"))
	})

	It("parses MERGE", func() {
		req := wire.ParseDirectoryRequest("MERGE alice tokA salonA tokB salonB")
		Expect(req.Kind).To(Equal(wire.DirMerge))
		Expect(req.TokenA).To(Equal("tokA"))
		Expect(req.GroupA).To(Equal("salonA"))
		Expect(req.TokenB).To(Equal("tokB"))
		Expect(req.GroupB).To(Equal("salonB"))
	})

	It("rejects malformed requests as unknown", func() {
		Expect(wire.ParseDirectoryRequest("").Kind).To(Equal(wire.DirUnknown))
		Expect(wire.ParseDirectoryRequest("JOIN salon1").Kind).To(Equal(wire.DirUnknown))
		Expect(wire.ParseDirectoryRequest("PING").Kind).To(Equal(wire.DirUnknown))
	})

	It("flags a MERGE with the wrong field count as a syntax error, not unknown", func() {
		Expect(wire.ParseDirectoryRequest("MERGE alice tokA salonA").Kind).To(Equal(wire.DirMergeSyntax))
	})

	It("round-trips CREATE OK with a token through a client's reply parser", func() {
		raw := wire.FormatCreateOK("salon1", 4100, "deadbeef")
		reply := wire.ParseDirectoryReply(raw)
		Expect(reply.Kind).To(Equal(wire.ReplyOK))
		Expect(reply.Name).To(Equal("salon1"))
		Expect(reply.Port).To(Equal(4100))
		Expect(reply.Token).To(Equal("deadbeef"))
	})

	It("round-trips CREATE OK without a token", func() {
		reply := wire.ParseDirectoryReply(wire.FormatCreateOK("salon1", 4100, ""))
		Expect(reply.Token).To(BeEmpty())
	})

	It("round-trips MERGE OK", func() {
		reply := wire.ParseDirectoryReply(wire.FormatMergeOK("salonA", "salonB"))
		Expect(reply.Kind).To(Equal(wire.ReplyOK))
		Expect(reply.GroupA).To(Equal("salonA"))
		Expect(reply.GroupB).To(Equal("salonB"))
	})

	It("round-trips an ERR reply", func() {
		reply := wire.ParseDirectoryReply(wire.FormatErr("no_slot"))
		Expect(reply.Kind).To(Equal(wire.ReplyErr))
		Expect(reply.Reason).To(Equal("no_slot"))
	})

	It("round-trips an empty LIST reply as the (aucun) sentinel", func() {
		reply := wire.ParseDirectoryReply(wire.FormatListReply(nil))
		Expect(reply.Kind).To(Equal(wire.ReplyList))
		Expect(reply.Entries).To(BeEmpty())
	})

	It("round-trips a populated LIST reply", func() {
		entries := []wire.ListEntry{{Name: "salon1", Port: 4100}, {Name: "salon2", Port: 4101}}
		reply := wire.ParseDirectoryReply(wire.FormatListReply(entries))
		Expect(reply.Kind).To(Equal(wire.ReplyList))
		Expect(reply.Entries).To(Equal(entries))
	})
})

var _ = Describe("group message grammar", func() {
	It("parses MSG with a multi-word payload", func() {
		msg := wire.ParseGroupMessage("MSG alice salut tout le monde")
		Expect(msg.Kind).To(Equal(wire.GroupMsg))
		Expect(msg.User).To(Equal("alice"))
		Expect(msg.Text).To(Equal("salut tout le monde"))
	})

	It("parses CMD BAN and BAN2", func() {
		m1 := wire.ParseGroupMessage("CMD BAN tok123 bob")
		Expect(m1.Kind).To(Equal(wire.GroupCmdBan))
		Expect(m1.Token).To(Equal("tok123"))
		Expect(m1.TargetUser).To(Equal("bob"))

		m2 := wire.ParseGroupMessage("CMD BAN2 tok123 alice bob")
		Expect(m2.Kind).To(Equal(wire.GroupCmdBan2))
		Expect(m2.AdminUser).To(Equal("alice"))
		Expect(m2.TargetUser).To(Equal("bob"))
	})

	It("parses CTRL REDIRECT with and without a reason", func() {
		m1 := wire.ParseGroupMessage("CTRL REDIRECT salonA 4100")
		Expect(m1.Kind).To(Equal(wire.GroupCtrlRedirect))
		Expect(m1.NewGroup).To(Equal("salonA"))
		Expect(m1.NewPort).To(Equal("4100"))
		Expect(m1.Reason).To(Equal("merge"))

		m2 := wire.ParseGroupMessage("CTRL REDIRECT salonA 4100 manual")
		Expect(m2.Reason).To(Equal("manual"))
	})

	It("parses CTRL BANNER_SET/CLR and IBANNER_SET/CLR", func() {
		Expect(wire.ParseGroupMessage("CTRL BANNER_SET bienvenue").Kind).To(Equal(wire.GroupCtrlBannerSet))
		Expect(wire.ParseGroupMessage("CTRL BANNER_CLR").Kind).To(Equal(wire.GroupCtrlBannerClr))
		Expect(wire.ParseGroupMessage("CTRL IBANNER_SET bientot inactif").Kind).To(Equal(wire.GroupCtrlIBannerSet))
		Expect(wire.ParseGroupMessage("CTRL IBANNER_CLR").Kind).To(Equal(wire.GroupCtrlIBannerClr))
	})

	It("parses SYS", func() {
		msg := wire.ParseGroupMessage("SYS le serveur va redemarrer")
		Expect(msg.Kind).To(Equal(wire.GroupSys))
		Expect(msg.Text).To(Equal("le serveur va redemarrer"))
	})

	It("treats unrecognized prefixes as unknown", func() {
		Expect(wire.ParseGroupMessage("GROUPE[salon1]: Message de bob : hi").Kind).To(Equal(wire.GroupUnknown))
	})

	It("tells an unknown CMD verb apart from a known one with bad arguments", func() {
		Expect(wire.ParseGroupMessage("CMD BOGUS").Kind).To(Equal(wire.GroupCmdUnknown))
		Expect(wire.ParseGroupMessage("CMD BAN tok123").Kind).To(Equal(wire.GroupCmdBadArgs))
		Expect(wire.ParseGroupMessage("CMD BAN2 tok123 alice").Kind).To(Equal(wire.GroupCmdBadArgs))
	})

	It("formats a CMD LIST reply the same way the directory formats LIST", func() {
		Expect(wire.FormatGroupListReply(nil)).To(Equal("(aucun)"))
		out := wire.FormatGroupListReply([]wire.MemberEntry{{User: "alice", Addr: "127.0.0.1:5000"}})
		Expect(out).To(Equal("alice 127.0.0.1:5000"))
	})

	It("formats the ban/unban audit broadcast without the generic SYS template", func() {
		ban := wire.FormatBroadcastAudit("chat", wire.FormatBanAudit("alice", "carol"))
		Expect(ban).To(Equal("GROUPE[chat]: [Action] (alice) a banni (carol)"))

		unban := wire.FormatBroadcastAudit("chat", wire.FormatUnbanAudit("alice", "carol"))
		Expect(unban).To(Equal("GROUPE[chat]: [Action] (alice) a debanni (carol)"))
	})
})
