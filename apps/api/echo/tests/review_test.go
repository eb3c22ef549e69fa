package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/review"
	"github.com/darasahq/darasa/core/user"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_reviewApi_reviews(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Awe", "awe@test.cd", "", user.RoleStudent, true)

	crs := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
	testutil.CreateEnrollment(t, enrollRepo, student.ID, crs.ID)

	token := getToken(t, student)

	t.Run("not enrolled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/reviews", getToken(t, outsider),
			marchallObj(t, review.NewReview{Rating: 5, Comment: "great course"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"})}, rec)
	})

	t.Run("rating out of range", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/reviews", token,
			marchallObj(t, review.NewReview{Rating: 6}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	var rev review.Review
	t.Run("review added", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/reviews", token,
			marchallObj(t, review.NewReview{Rating: 4, Comment: "solid intro"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &rev); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if rev.UserID != student.ID || rev.CourseID != crs.ID || rev.Rating != 4 {
			t.Errorf("failed! review = %+v", rev)
		}
		if rev.HelpfulCount != 0 || rev.Reported {
			t.Errorf("failed! new review must start unmarked: %+v", rev)
		}
	})

	t.Run("one review per course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/reviews", token,
			marchallObj(t, review.NewReview{Rating: 5}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "course already reviewed"})}, rec)
	})

	t.Run("listed publicly", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/reviews")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, rev)}, rec)
	})

	t.Run("marked helpful without a token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/reviews/"+rev.ID+"/helpful")
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var marked review.Review
		if err := json.Unmarshal(rec.Body.Bytes(), &marked); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if marked.HelpfulCount != 1 {
			t.Errorf("failed! HelpfulCount = %d; want 1", marked.HelpfulCount)
		}
	})

	t.Run("reported", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/reviews/"+rev.ID+"/report", getToken(t, outsider))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var reported review.Review
		if err := json.Unmarshal(rec.Body.Bytes(), &reported); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if !reported.Reported {
			t.Error("failed! review must be flagged for moderation")
		}
	})

	t.Run("unknown review", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/reviews/lol/helpful")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "review not found"})}, rec)
	})
}

func Test_reviewApi_wishlist(t *testing.T) {
	db.Reset()

	instructor := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	crs := testutil.CreateCourse(t, courseRepo, "Go from Zero", "programming", instructor.ID, 0, course.StatusApproved)
	token := getToken(t, student)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/wishlist")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("added", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/wishlist/"+crs.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var item review.WishlistItem
		if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if item.UserID != student.ID || item.CourseID != crs.ID {
			t.Errorf("failed! item = %+v", item)
		}
	})

	t.Run("added twice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/wishlist/"+crs.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "course already in wishlist"})}, rec)
	})

	t.Run("listed with course populated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/wishlist", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var items []review.WishlistItem
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("failed! len(items) = %d; want 1", len(items))
		}
		if items[0].Course == nil || items[0].Course.Title != crs.Title {
			t.Errorf("failed! Course not populated: %+v", items[0])
		}
	})

	t.Run("removed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/wishlist/"+crs.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})

	t.Run("removed twice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/wishlist/"+crs.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "wishlist item not found"})}, rec)
	})
}
