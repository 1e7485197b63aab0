package chat_test

import (
	"testing"
	"time"

	"github.com/legalintel/counsel/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestChat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chat Suite")
}

var _ = Describe("Entry", func() {
	var testTime time.Time

	BeforeEach(func() {
		testTime = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	})

	Describe("NewUserEntry", func() {
		It("should create a trimmed, complete, local user entry", func() {
			e := chat.NewUserEntry("  What is consideration?  ", chat.ProvisionalStamp(testTime), 1)

			Expect(e.Role).To(Equal(chat.RoleUser))
			Expect(e.Content).To(Equal("What is consideration?"))
			Expect(e.Origin).To(Equal(chat.OriginLocal))
			Expect(e.Status).To(Equal(chat.StatusComplete))
			Expect(e.Seq).To(Equal(uint64(1)))
			Expect(e.ID).ToNot(BeEmpty())
		})

		It("should assign unique IDs", func() {
			a := chat.NewUserEntry("x", chat.ProvisionalStamp(testTime), 1)
			b := chat.NewUserEntry("x", chat.ProvisionalStamp(testTime), 2)
			Expect(a.ID).ToNot(Equal(b.ID))
		})
	})

	Describe("NewAssistantEntry", func() {
		It("should start pending with empty content", func() {
			e := chat.NewAssistantEntry(chat.ProvisionalStamp(testTime), 2)

			Expect(e.Role).To(Equal(chat.RoleAssistant))
			Expect(e.Content).To(BeEmpty())
			Expect(e.Status).To(Equal(chat.StatusPending))
			Expect(e.IsTerminal()).To(BeFalse())
		})
	})

	Describe("IsTerminal", func() {
		It("should be true only for complete and failed", func() {
			e := chat.NewAssistantEntry(chat.ProvisionalStamp(testTime), 1)

			e.Status = chat.StatusStreaming
			Expect(e.IsTerminal()).To(BeFalse())

			e.Status = chat.StatusComplete
			Expect(e.IsTerminal()).To(BeTrue())

			e.Status = chat.StatusFailed
			Expect(e.IsTerminal()).To(BeTrue())
		})
	})

	Describe("Matches", func() {
		It("should match on role and exact content, never on ID", func() {
			local := chat.NewUserEntry("hello", chat.ProvisionalStamp(testTime), 1)
			persisted := chat.Entry{
				ID:      "42",
				Role:    chat.RoleUser,
				Content: "hello",
				Origin:  chat.OriginPersisted,
			}

			Expect(local.Matches(persisted)).To(BeTrue())

			persisted.Content = "hello there"
			Expect(local.Matches(persisted)).To(BeFalse())

			persisted.Content = "hello"
			persisted.Role = chat.RoleAssistant
			Expect(local.Matches(persisted)).To(BeFalse())
		})
	})
})
