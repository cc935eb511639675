package invoice

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

func multipartUpload(field, filename string, data []byte) (*bytes.Buffer, string) {
	var b bytes.Buffer
	writer := multipart.NewWriter(&b)
	if field != "" {
		part, _ := writer.CreateFormFile(field, filename)
		part.Write(data)
	}
	writer.Close()
	return &b, writer.FormDataContentType()
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		text        *mockTextSource
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		text = &mockTextSource{text: sampleText}
		service = NewServiceWithDeps(db, text, storage, &mockIDGenerator{id: "inv-1"},
			&mockTimeSource{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)})
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
			ghttpServer = nil
		}
	})

	Describe("handleIndex", func() {
		It("should return HTML containing Invoice Scanner", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
			Expect(readBody(resp)).To(ContainSubstring("Invoice Scanner"))
		})

		It("should also be served at /index.html", func() {
			resp, err := http.Get(ghttpServer.URL() + "/index.html")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Post(ghttpServer.URL()+"/", "text/plain", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("static assets", func() {
		It("should serve the stylesheet", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.css")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/css"))
			resp.Body.Close()
		})

		It("should serve the script", func() {
			resp, err := http.Get(ghttpServer.URL() + "/static/app.js")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/javascript"))
			Expect(readBody(resp)).To(ContainSubstring("/api/invoices"))
		})
	})

	Describe("CORS preflight", func() {
		It("should answer OPTIONS with No Content", func() {
			req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/api/invoices", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			resp.Body.Close()
		})
	})

	Describe("handleUploadInvoice", func() {
		When("upload succeeds", func() {
			var resp *http.Response

			BeforeEach(func() {
				body, contentType := multipartUpload("file", "scan.png", []byte("fake image data"))
				var err error
				resp, err = http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the parsed invoice", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var invoice Invoice
				Expect(json.Unmarshal([]byte(readBody(resp)), &invoice)).To(Succeed())
				Expect(invoice.ID).To(Equal("inv-1"))
				Expect(invoice.Extracted.Vendor).To(Equal("Acme Pty Ltd"))
				Expect(invoice.Extracted.Total).To(Equal(43.98))
			})

			It("should pass the content type along", func() {
				resp.Body.Close()
				Expect(text.contentType).To(Equal("application/octet-stream"))
			})
		})

		When("the OCR finds nothing", func() {
			BeforeEach(func() {
				text.text = ""
			})

			It("should still create the invoice with the default record", func() {
				body, contentType := multipartUpload("file", "blank.png", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var invoice Invoice
				Expect(json.Unmarshal([]byte(readBody(resp)), &invoice)).To(Succeed())
				Expect(invoice.Extracted.Items).To(BeEmpty())
				Expect(invoice.Extracted.Total).To(BeZero())
			})
		})

		When("no file is provided", func() {
			It("should return Bad Request with a JSON error", func() {
				body, contentType := multipartUpload("", "", nil)
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.Unmarshal([]byte(readBody(resp)), &result)).To(Succeed())
				Expect(result["error"]).To(ContainSubstring("No file was selected"))
			})
		})

		When("the file is empty", func() {
			It("should return Bad Request", func() {
				body, contentType := multipartUpload("file", "empty.png", nil)
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("the body is not multipart", func() {
			It("should return Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", "text/plain", strings.NewReader("hello"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("storage fails", func() {
			BeforeEach(func() {
				storage.saveErr = errors.New("disk full")
			})

			It("should return Internal Server Error", func() {
				body, contentType := multipartUpload("file", "scan.png", []byte("fake image data"))
				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", contentType, body)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleParseText", func() {
		It("should return the parsed record", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/parse", "text/plain", strings.NewReader(sampleText))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var record Record
			Expect(json.Unmarshal([]byte(readBody(resp)), &record)).To(Succeed())
			Expect(record).To(Equal(Parse(sampleText)))
		})

		It("should return the default record for empty text", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/parse", "text/plain", strings.NewReader(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(MatchJSON(`{"vendor":"","items":[],"subtotal":0,"total":0}`))
		})
	})

	Describe("handleListInvoices", func() {
		When("invoices exist", func() {
			BeforeEach(func() {
				db.invoices["id1"] = &Invoice{ID: "id1", Extracted: NewRecord()}
				db.invoices["id2"] = &Invoice{ID: "id2", Extracted: NewRecord()}
			})

			It("should return all invoices", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var invoices []*Invoice
				Expect(json.Unmarshal([]byte(readBody(resp)), &invoices)).To(Succeed())
				Expect(invoices).To(HaveLen(2))
			})
		})

		When("no invoices exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				Expect(readBody(resp)).To(MatchJSON(`[]`))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("db down")
			})

			It("should return Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetInvoice", func() {
		BeforeEach(func() {
			db.invoices["abc"] = &Invoice{ID: "abc", Extracted: Parse(sampleText)}
		})

		It("should return the invoice", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var invoice Invoice
			Expect(json.Unmarshal([]byte(readBody(resp)), &invoice)).To(Succeed())
			Expect(invoice.ID).To(Equal("abc"))
		})

		When("the invoice does not exist", func() {
			It("should return Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				Expect(readBody(resp)).To(ContainSubstring("Invoice not found"))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.getErr = errors.New("db down")
			})

			It("should return Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetInvoiceFile", func() {
		BeforeEach(func() {
			db.invoices["abc"] = &Invoice{ID: "abc", Filename: "abc_scan.png", ContentType: "image/png"}
			storage.files["abc_scan.png"] = []byte("png bytes")
		})

		It("should return the file with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc/file")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			Expect(readBody(resp)).To(Equal("png bytes"))
		})

		When("the invoice does not exist", func() {
			It("should return Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing/file")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("handleDeleteInvoice", func() {
		BeforeEach(func() {
			db.invoices["abc"] = &Invoice{ID: "abc", Filename: "abc_scan.png"}
			storage.files["abc_scan.png"] = []byte("png bytes")
		})

		doDelete := func(id string) *http.Response {
			req, err := http.NewRequest(http.MethodDelete, ghttpServer.URL()+"/api/invoices/"+id, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("should return No Content and remove the invoice", func() {
			resp := doDelete("abc")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			resp.Body.Close()
			Expect(db.invoices).NotTo(HaveKey("abc"))
		})

		When("the invoice does not exist", func() {
			It("should return Not Found", func() {
				resp := doDelete("missing")
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.deleteErr = errors.New("db down")
			})

			It("should return Internal Server Error", func() {
				resp := doDelete("abc")
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleConfirmInvoice", func() {
		BeforeEach(func() {
			db.invoices["abc"] = &Invoice{ID: "abc", Extracted: Parse(sampleText)}
		})

		confirm := func(id, body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/invoices/"+id+"/confirm", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("should store the reviewed data", func() {
			resp := confirm("abc", `{"vendor":"Acme Corp","items":[{"quantity":3,"item":"Bolts","amount":"4.50"}],"subtotal":13.5,"total":14.85}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var invoice Invoice
			Expect(json.Unmarshal([]byte(readBody(resp)), &invoice)).To(Succeed())
			Expect(invoice.Confirmed).NotTo(BeNil())
			Expect(invoice.Confirmed.Vendor).To(Equal("Acme Corp"))
			Expect(invoice.Confirmed.Items).To(Equal([]LineItem{{Quantity: 3, Description: "Bolts", Amount: 4.5}}))
			Expect(invoice.Confirmed.Total).To(Equal(14.85))
			Expect(invoice.Extracted.Vendor).To(Equal("Acme Pty Ltd"))
		})

		When("the review has negative values", func() {
			It("should return Bad Request naming the field", func() {
				resp := confirm("abc", `{"vendor":"Acme","items":[],"subtotal":0,"total":-5}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

				var result map[string]string
				Expect(json.Unmarshal([]byte(readBody(resp)), &result)).To(Succeed())
				Expect(result["error"]).To(ContainSubstring("total"))
			})
		})

		When("the body is not JSON", func() {
			It("should return Bad Request", func() {
				resp := confirm("abc", `not json`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("the invoice does not exist", func() {
			It("should return Not Found", func() {
				resp := confirm("missing", `{"vendor":"Acme","items":[],"subtotal":0,"total":0}`)
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetInvoiceDocument", func() {
		BeforeEach(func() {
			db.invoices["abc"] = &Invoice{ID: "abc", Extracted: Parse(sampleText), UpdatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
		})

		When("the invoice has not been confirmed", func() {
			It("should ask the user to start again", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc/document")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(readBody(resp)).To(ContainSubstring("No data to generate the invoice. Please start again."))
			})
		})

		When("the invoice has been confirmed", func() {
			BeforeEach(func() {
				confirmed := Parse(sampleText)
				db.invoices["abc"].Confirmed = &confirmed
			})

			It("should return the rendered document", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc/document")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("text/html; charset=utf-8"))

				body := readBody(resp)
				Expect(body).To(ContainSubstring("Acme Pty Ltd"))
				Expect(body).To(ContainSubstring("1 March 2024"))
			})
		})

		When("the invoice does not exist", func() {
			It("should return Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/missing/document")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("authenticate", func() {
		When("no auth is configured", func() {
			It("should return true", func() {
				req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(server.authenticate(req)).To(BeTrue())
			})
		})

		When("auth is configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				setupServer()
			})

			DescribeTable("checks the Authorization header",
				func(header string, expected bool) {
					req, err := http.NewRequest("GET", ghttpServer.URL()+"/", nil)
					Expect(err).NotTo(HaveOccurred())
					if header != "" {
						req.Header.Set("Authorization", header)
					}
					Expect(server.authenticate(req)).To(Equal(expected))
				},
				Entry("valid credentials", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")), true),
				Entry("wrong password", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")), false),
				Entry("missing header", "", false),
				Entry("not basic", "Bearer token", false),
				Entry("bad encoding", "Basic !!!", false),
				Entry("no separator", "Basic "+base64.StdEncoding.EncodeToString([]byte("userpass")), false),
			)

			It("should reject unauthenticated requests", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).NotTo(BeEmpty())
				resp.Body.Close()
			})
		})
	})
})
