package llm

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		req     Request
		reply   string
		err     error
		payload map[string]any
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		payload = nil
		req = Request{
			System: "system text",
			Prompt: "extract",
			Image:  &Image{Base64: "aW1n", MIMEType: "image/jpeg"},
		}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		model := NewOllama(Config{BaseURL: server.URL(), Model: "llava:1.6", MaxTokens: 250})
		reply, err = model.Complete(context.Background(), req)
	})

	When("the chat call succeeds", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				captureJSON(&payload),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"role": "assistant", "content": `{"gstin":"X"}`},
					"done":    true,
				}),
			))
		})

		It("returns the message content", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal(`{"gstin":"X"}`))
		})

		It("disables streaming and sets the token budget", func() {
			Expect(payload).To(HaveKeyWithValue("model", "llava:1.6"))
			Expect(payload).To(HaveKeyWithValue("stream", false))
			Expect(payload["options"]).To(HaveKeyWithValue("num_predict", BeNumerically("==", 250)))
		})

		It("attaches the image to the user message", func() {
			messages := payload["messages"].([]any)
			Expect(messages).To(HaveLen(2))
			Expect(messages[1]).To(HaveKeyWithValue("role", "user"))
			Expect(messages[1]).To(HaveKeyWithValue("images", ConsistOf("aW1n")))
		})
	})

	When("the server responds with an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "model not found"))
		})

		It("returns the error with the body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 404")))
			Expect(err).To(MatchError(ContainSubstring("model not found")))
		})
	})
})
