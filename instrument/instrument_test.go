package instrument

import (
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sd2k/webtxn/apm"
	"github.com/sd2k/webtxn/hooks"
)

// recordingHook collects every hook invocation.
type recordingHook struct {
	ctxs []hooks.HookCtx
}

func (h *recordingHook) Func(ctx hooks.HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

var _ = Describe("Instrumentor", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockBackend
		txn      *MockTransaction
		ins      *Instrumentor
		router   *mux.Router
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockBackend(mockCtrl)
		txn = NewMockTransaction(mockCtrl)

		ins = New(backend)
		router = mux.NewRouter()
		router.Use(ins.Middleware)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		return w
	}

	It("should panic if the backend is nil", func() {
		Expect(func() { New(nil) }).Should(Panic())
	})

	It("should open one transaction no matter how often the handler "+
		"asks for it", func() {
		backend.EXPECT().
			StartTransaction("users/list").
			Return(txn, nil).
			Times(1)
		txn.EXPECT().End().Return(nil)

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				for i := 0; i < 3; i++ {
					_, ok := FromRequest(r)
					Expect(ok).To(BeTrue())
				}
			}).Name("list")

		serve("/users")
	})

	It("should hand every caller the same transaction", func() {
		backend.EXPECT().StartTransaction("users/list").Return(txn, nil)
		txn.EXPECT().End().Return(nil)

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				t1, _ := FromRequest(r)
				t2, _ := FromContext(r.Context())
				Expect(t1).To(BeIdenticalTo(txn))
				Expect(t2).To(BeIdenticalTo(t1))
			}).Name("list")

		serve("/users")
	})

	It("should discard the transaction when the handler never claims "+
		"it", func() {
		backend.EXPECT().StartTransaction("users/list").Return(txn, nil)
		txn.EXPECT().Ignore().Return(nil).Times(1)

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}).Name("list")

		serve("/users")
	})

	It("should attach the status text before ending a failed claimed "+
		"transaction", func() {
		backend.EXPECT().
			StartTransaction("users/{id}/get").
			Return(txn, nil)
		gomock.InOrder(
			txn.EXPECT().
				NoticeError(apm.ErrorCodeHTTP, "404 Not Found", "").
				Return(nil),
			txn.EXPECT().End().Return(nil),
		)

		router.HandleFunc("/users/{id}",
			func(w http.ResponseWriter, r *http.Request) {
				FromRequest(r)
				http.NotFound(w, r)
			}).Name("get")

		serve("/users/unknown")
	})

	It("should treat an unwritten response as a 200", func() {
		backend.EXPECT().StartTransaction("users/list").Return(txn, nil)
		txn.EXPECT().End().Return(nil)

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				FromRequest(r)
			}).Name("list")

		Expect(serve("/users").Code).To(Equal(http.StatusOK))
	})

	It("should not open a second transaction when nested", func() {
		backend.EXPECT().
			StartTransaction("users/list").
			Return(txn, nil).
			Times(1)
		txn.EXPECT().Ignore().Return(nil).Times(1)

		sub := router.PathPrefix("/users").Subrouter()
		sub.Use(ins.Middleware)
		sub.HandleFunc("",
			func(w http.ResponseWriter, r *http.Request) {
			}).Name("list")

		serve("/users")
	})

	It("should name the transaction unknown_handler outside a router",
		func() {
			backend.EXPECT().
				StartTransaction(UnknownHandler).
				Return(txn, nil)
			txn.EXPECT().Ignore().Return(nil)

			handler := ins.Middleware(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
				}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))
		})

	It("should keep serving when the backend cannot open a "+
		"transaction", func() {
		backend.EXPECT().
			StartTransaction("users/list").
			Return(nil, errors.New("backend unavailable"))

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				_, ok := FromRequest(r)
				Expect(ok).To(BeFalse())
				w.WriteHeader(http.StatusOK)
			}).Name("list")

		Expect(serve("/users").Code).To(Equal(http.StatusOK))
	})

	It("should tolerate requests that never passed the middleware",
		func() {
			r := httptest.NewRequest("GET", "/users", nil)

			Expect(func() {
				_, ok := FromRequest(r)
				Expect(ok).To(BeFalse())
			}).ShouldNot(Panic())
		})

	It("should finalize a claimed transaction when the handler "+
		"panics", func() {
		backend.EXPECT().StartTransaction("users/list").Return(txn, nil)
		gomock.InOrder(
			txn.EXPECT().
				NoticeError(apm.ErrorCodeHTTP,
					"500 Internal Server Error", "").
				Return(nil),
			txn.EXPECT().End().Return(nil),
		)

		router.HandleFunc("/users",
			func(w http.ResponseWriter, r *http.Request) {
				FromRequest(r)
				panic("handler exploded")
			}).Name("list")

		Expect(func() { serve("/users") }).Should(Panic())
	})

	It("should deliver start and end records to hooks", func() {
		backend.EXPECT().
			StartTransaction("users/{id}/get").
			Return(txn, nil)
		txn.EXPECT().
			NoticeError(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)
		txn.EXPECT().End().Return(nil)

		hook := &recordingHook{}
		ins.AcceptHook(hook)

		router.HandleFunc("/users/{id}",
			func(w http.ResponseWriter, r *http.Request) {
				FromRequest(r)
				http.NotFound(w, r)
			}).Name("get")

		serve("/users/unknown")

		Expect(hook.ctxs).To(HaveLen(2))
		Expect(hook.ctxs[0].Pos).To(BeIdenticalTo(HookPosTxnStart))
		Expect(hook.ctxs[1].Pos).To(BeIdenticalTo(HookPosTxnEnd))

		rec := hook.ctxs[1].Item.(Record)
		Expect(rec.Name).To(Equal("users/{id}/get"))
		Expect(rec.Status).To(Equal(http.StatusNotFound))
		Expect(rec.Claimed).To(BeTrue())
		Expect(rec.Failed).To(BeTrue())
		Expect(rec.EndTime).ToNot(BeZero())
	})
})
