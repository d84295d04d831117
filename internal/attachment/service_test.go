package attachment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/attachment"
	"github.com/chronotracker/chronotracker-api/internal/transport"
)

var (
	pdfPayload = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngPayload = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
)

var _ = Describe("Attachments", func() {
	var (
		dir     string
		store   *attachment.LocalStore
		service *attachment.Service
		ctx     context.Context
		actor   internal.Actor
		slogger *slog.Logger
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		store, err = attachment.NewLocalStore(dir)
		Expect(err).NotTo(HaveOccurred())

		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = attachment.NewService(store, 1024, slogger)
		ctx = context.Background()
		actor = internal.Actor{ID: 7, Role: internal.RoleCollaborator}
	})

	Describe("Upload", func() {
		It("stores a PDF under the uploader and reports it as existing", func() {
			att, err := service.Upload(ctx, actor, bytes.NewReader(pdfPayload))
			Expect(err).NotTo(HaveOccurred())
			Expect(att.ContentType).To(Equal("application/pdf"))
			Expect(att.Size).To(Equal(int64(len(pdfPayload))))
			Expect(att.Reference).To(HavePrefix("7/"))
			Expect(att.Reference).To(HaveSuffix(".pdf"))

			ok, err := service.Exists(ctx, att.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(att.Reference)))
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(pdfPayload))
		})

		It("accepts PNG images", func() {
			att, err := service.Upload(ctx, actor, bytes.NewReader(pngPayload))
			Expect(err).NotTo(HaveOccurred())
			Expect(att.Reference).To(HaveSuffix(".png"))
		})

		It("rejects content outside the allow-list", func() {
			_, err := service.Upload(ctx, actor, strings.NewReader("just some notes"))
			Expect(err).To(MatchError(internal.ErrUnsupportedFile))
		})

		It("rejects an empty payload", func() {
			_, err := service.Upload(ctx, actor, bytes.NewReader(nil))
			Expect(internal.IsValidation(err)).To(BeTrue())
		})

		It("rejects oversized payloads without leaving files behind", func() {
			big := append(append([]byte{}, pdfPayload...), bytes.Repeat([]byte("x"), 2048)...)
			_, err := service.Upload(ctx, actor, bytes.NewReader(big))
			Expect(err).To(MatchError(internal.ErrFileTooLarge))

			files, err := filepath.Glob(filepath.Join(dir, "7", "*"))
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(BeEmpty())
		})
	})

	Describe("LocalStore", func() {
		It("does not resolve references outside its directory", func() {
			ok, err := store.Exists(ctx, "../../etc/passwd")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			_, err = store.Put(ctx, "../escape.pdf", bytes.NewReader(pdfPayload))
			Expect(err).To(MatchError(attachment.ErrInvalidReference))
		})

		It("reports unknown references as missing", func() {
			ok, err := store.Exists(ctx, "7/unknown.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("deletes stored payloads", func() {
			_, err := store.Put(ctx, "1/receipt.pdf", bytes.NewReader(pdfPayload))
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Delete(ctx, "1/receipt.pdf")).To(Succeed())

			ok, err := store.Exists(ctx, "1/receipt.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("POST /attachments", func() {
		var handler *attachment.Handler

		BeforeEach(func() {
			handler = attachment.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		})

		upload := func(field string, payload []byte) *httptest.ResponseRecorder {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			Expect(mw.WriteField("note", "taxi")).To(Succeed())
			fw, err := mw.CreateFormFile(field, "receipt.pdf")
			Expect(err).NotTo(HaveOccurred())
			_, err = fw.Write(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/attachments", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			req = req.WithContext(internal.ContextWithActor(req.Context(), actor))
			rec := httptest.NewRecorder()
			handler.Upload(rec, req)
			return rec
		}

		It("returns the stored reference", func() {
			rec := upload("file", pdfPayload)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var att attachment.Attachment
			Expect(json.Unmarshal(rec.Body.Bytes(), &att)).To(Succeed())
			Expect(att.Reference).To(HaveSuffix(".pdf"))
			Expect(att.UploadedBy).To(Equal(actor.ID))
		})

		It("requires the file part", func() {
			rec := upload("document", pdfPayload)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("file is required"))
		})

		It("refuses non-multipart bodies", func() {
			req := httptest.NewRequest(http.MethodPost, "/attachments", strings.NewReader(`{"file":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(internal.ContextWithActor(req.Context(), actor))
			rec := httptest.NewRecorder()
			handler.Upload(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
