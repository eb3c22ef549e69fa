package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/user"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_enrollApi_enroll(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)

	free := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
	paid := testutil.CreateCourse(t, courseRepo, "Python Basics", "programming", instructor.ID, 19.99, course.StatusApproved)
	draft := testutil.CreateCourse(t, courseRepo, "Unfinished", "programming", instructor.ID, 0, course.StatusPending)

	token := getToken(t, student)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/courses/"+free.ID+"/enroll")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("pending course not enrollable", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+draft.ID+"/enroll", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"})}, rec)
	})

	t.Run("free course enrolled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+free.ID+"/enroll", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var enr enroll.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if enr.UserID != student.ID || enr.CourseID != free.ID {
			t.Errorf("failed! enrollment = %+v", enr)
		}
		if enr.Progress != 0 || enr.CompletionStatus != enroll.StatusInProgress {
			t.Errorf("failed! Progress = %d, CompletionStatus = %s", enr.Progress, enr.CompletionStatus)
		}
	})

	t.Run("duplicate enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+free.ID+"/enroll", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already enrolled in this course"})}, rec)
	})

	t.Run("priced course records payment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+paid.ID+"/enroll", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		pmt, err := enrollRepo.GetCompletedPayment(req.Context(), student.ID, paid.ID)
		if err != nil {
			t.Fatalf("GetCompletedPayment() failed: %v", err)
		}
		if pmt.Amount != paid.Price {
			t.Errorf("failed! Amount = %v; want %v", pmt.Amount, paid.Price)
		}
	})
}

func Test_enrollApi_retrieveOwn(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	token := getToken(t, student)

	paid := testutil.CreateCourse(t, courseRepo, "Python Basics", "programming", instructor.ID, 19.99, course.StatusApproved)
	mod1 := testutil.CreateModule(t, courseRepo, paid.ID, "Intro", course.ModuleVideo, 1)
	mod2 := testutil.CreateModule(t, courseRepo, paid.ID, "Final Quiz", course.ModuleQuiz, 2)

	// enrolled directly, without a payment record
	testutil.CreateEnrollment(t, enrollRepo, student.ID, paid.ID)

	t.Run("not enrolled", func(t *testing.T) {
		other := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/courses/"+other.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "enrollment not found"})}, rec)
	})

	t.Run("content gated until paid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/courses/"+paid.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp echoapi.EnrollmentDetailResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(resp.Modules) != 2 {
			t.Fatalf("failed! len(Modules) = %d; want 2", len(resp.Modules))
		}
		for _, mod := range resp.Modules {
			if mod.ContentURL != "" {
				t.Errorf("failed! Modules content must be stripped, got %q", mod.ContentURL)
			}
		}
		if resp.NextModuleIndex != 0 {
			t.Errorf("failed! NextModuleIndex = %d; want 0", resp.NextModuleIndex)
		}
	})

	t.Run("content unlocked after payment", func(t *testing.T) {
		testutil.CreatePayment(t, enrollRepo, student.ID, paid.ID, paid.Price)

		req, rec := newAuthRequest(http.MethodGet, "/v1/student/courses/"+paid.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp echoapi.EnrollmentDetailResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		wantURLs := []string{mod1.ContentURL, mod2.ContentURL}
		for i, mod := range resp.Modules {
			if mod.ContentURL != wantURLs[i] {
				t.Errorf("failed! Modules[%d].ContentURL = %q; want %q", i, mod.ContentURL, wantURLs[i])
			}
		}
	})
}

func Test_enrollApi_progressToCertificate(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	token := getToken(t, student)

	crs := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
	lesson := testutil.CreateModule(t, courseRepo, crs.ID, "Intro", course.ModuleVideo, 1)
	quiz := testutil.CreateModule(t, courseRepo, crs.ID, "Final Quiz", course.ModuleQuiz, 2)
	testutil.CreateEnrollment(t, enrollRepo, student.ID, crs.ID)

	t.Run("foreign module rejected", func(t *testing.T) {
		other := testutil.CreateCourse(t, courseRepo, "Python Basics", "programming", instructor.ID, 0, course.StatusApproved)
		foreign := testutil.CreateModule(t, courseRepo, other.ID, "Intro", course.ModuleVideo, 1)

		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+foreign.ID+"/complete", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"module_id": "module does not belong to this course"}),
		}, rec)
	})

	t.Run("lesson completed, progress at half", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+lesson.ID+"/complete", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var enr enroll.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if enr.Progress != 50 {
			t.Errorf("failed! Progress = %d; want 50", enr.Progress)
		}
		if enr.Completed() {
			t.Error("failed! enrollment must still be in progress")
		}
	})

	t.Run("quiz module rejects plain completion scoring", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+lesson.ID+"/quiz", token,
			marchallObj(t, enroll.QuizSubmission{Correct: 3, Total: 4}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"module_id": "module is not a quiz"}),
		}, rec)
	})

	t.Run("quiz module rejects direct completion", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+quiz.ID+"/complete", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"module_id": "quiz modules require a scored submission"}),
		}, rec)
	})

	t.Run("failed quiz leaves progress untouched", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+quiz.ID+"/quiz", token,
			marchallObj(t, enroll.QuizSubmission{Correct: 2, Total: 3}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res enroll.QuizResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if res.Score != 67 || res.Passed {
			t.Errorf("failed! result = %+v; want score 67, not passed", res)
		}
		if res.Enrollment != nil {
			t.Error("failed! failed attempt must not return the enrollment")
		}
	})

	t.Run("passed quiz completes the course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/modules/"+quiz.ID+"/quiz", token,
			marchallObj(t, enroll.QuizSubmission{Correct: 3, Total: 4}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res enroll.QuizResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if res.Score != 75 || !res.Passed {
			t.Errorf("failed! result = %+v; want score 75, passed", res)
		}
		if res.Enrollment == nil {
			t.Fatal("failed! passing attempt must return the enrollment")
		}
		if res.Enrollment.Progress != 100 || !res.Enrollment.Completed() {
			t.Errorf("failed! enrollment = %+v; want completed at 100", res.Enrollment)
		}
	})

	t.Run("certificate issued once", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/certificates", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var certs []enroll.Certificate
		if err := json.Unmarshal(rec.Body.Bytes(), &certs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(certs) != 1 {
			t.Fatalf("failed! len(certs) = %d; want 1", len(certs))
		}
		if certs[0].CourseTitle != crs.Title {
			t.Errorf("failed! CourseTitle = %s; want %s", certs[0].CourseTitle, crs.Title)
		}
		if certs[0].VerificationID == "" || certs[0].CertificateURL == "" {
			t.Errorf("failed! certificate not verifiable: %+v", certs[0])
		}
	})
}

func Test_enrollApi_listings(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)

	crs := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
	other := testutil.CreateCourse(t, courseRepo, "Python Basics", "programming", instructor.ID, 0, course.StatusApproved)
	testutil.CreateEnrollment(t, enrollRepo, student.ID, crs.ID)
	testutil.CreateEnrollment(t, enrollRepo, student.ID, other.ID)

	t.Run("student enrollments with course populated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/courses", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var enrs []enroll.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enrs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(enrs) != 2 {
			t.Fatalf("failed! len(enrs) = %d; want 2", len(enrs))
		}
		for _, enr := range enrs {
			if enr.Course == nil {
				t.Errorf("failed! Course not populated on enrollment %s", enr.ID)
			}
		}
	})

	t.Run("instructor role required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/instructor/enrollments", getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("instructor sees enrollments into own courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/instructor/enrollments", getToken(t, instructor))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var enrs []enroll.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enrs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(enrs) != 2 {
			t.Errorf("failed! len(enrs) = %d; want 2", len(enrs))
		}
	})
}
