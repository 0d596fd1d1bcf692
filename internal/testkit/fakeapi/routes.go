package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
	"github.com/aussiebroadwan/studio/pkg/httpx"
	"github.com/google/uuid"
)

var (
	instructors = []apiclient.Role{apiclient.RoleInstructor, apiclient.RoleAdmin}
	admins      = []apiclient.Role{apiclient.RoleAdmin}
	students    = []apiclient.Role{apiclient.RoleStudent}
)

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/register", s.register)
	mux.HandleFunc("POST /v1/auth/login", s.login)
	mux.HandleFunc("POST /v1/auth/logout", s.authed(nil, s.logout))
	mux.HandleFunc("POST /v1/auth/verify", s.verify)
	mux.HandleFunc("POST /v1/auth/request-verify-token", s.requestVerifyToken)
	mux.HandleFunc("POST /v1/auth/forgot-password", s.forgotPassword)
	mux.HandleFunc("POST /v1/auth/reset-password", s.resetPassword)

	mux.HandleFunc("GET /v1/users/me", s.authed(nil, s.getMe))
	mux.HandleFunc("PATCH /v1/users/me", s.authed(nil, s.patchMe))

	mux.HandleFunc("GET /v1/class-groups", s.authed(nil, s.listClassGroups))
	mux.HandleFunc("GET /v1/me/calendar", s.authed(students, s.myCalendar))
	mux.HandleFunc("GET /v1/me/enrollments", s.authed(students, s.myEnrollments))
	mux.HandleFunc("POST /v1/me/enrollments", s.authed(students, s.enroll))
	mux.HandleFunc("POST /v1/me/enrollments/{id}/cancel", s.authed(students, s.cancelEnrollment))
	mux.HandleFunc("GET /v1/me/attendance", s.authed(students, s.myAttendance))
	mux.HandleFunc("GET /v1/me/billing/summary", s.authed(students, s.myBilling))

	mux.HandleFunc("GET /v1/instructor/calendar", s.authed(instructors, s.instructorCalendar))
	mux.HandleFunc("POST /v1/instructor/schedule/class-sessions/{id}/complete", s.authed(instructors, s.completeSession))
	mux.HandleFunc("POST /v1/instructor/schedule/class-sessions/{id}/cancel", s.authed(instructors, s.cancelSession))
	mux.HandleFunc("POST /v1/instructor/schedule/class-sessions/{id}/reschedule", s.authed(instructors, s.rescheduleSession))
	mux.HandleFunc("POST /v1/instructor/schedule/class-sessions/{id}/substitutions", s.authed(instructors, s.substitute))
	mux.HandleFunc("GET /v1/instructor/schedule/class-sessions/{id}/attendance", s.authed(instructors, s.getAttendance))
	mux.HandleFunc("PUT /v1/instructor/schedule/class-sessions/{id}/attendance", s.authed(instructors, s.putAttendance))

	mux.HandleFunc("GET /v1/admin/users", s.authed(admins, s.listUsers))
	mux.HandleFunc("PATCH /v1/admin/users/{id}", s.authed(admins, s.updateUser))
	mux.HandleFunc("DELETE /v1/admin/users/{id}", s.authed(admins, s.deleteUser))
	mux.HandleFunc("GET /v1/admin/class-sessions", s.authed(admins, s.listClassSessions))
	mux.HandleFunc("GET /v1/admin/students", s.authed(admins, s.listStudents))
	mux.HandleFunc("GET /v1/admin/payments", s.authed(admins, s.listPayments))
	mux.HandleFunc("POST /v1/admin/payments", s.authed(admins, s.recordPayment))
}

// ============================================================================
// Auth
// ============================================================================

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req apiclient.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) {
			httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeRegisterUserAlreadyExists)
			return
		}
	}
	if len(req.Password) < 8 {
		httpx.WriteDetail(w, http.StatusBadRequest, map[string]string{
			"code":   apiclient.CodeRegisterInvalidPassword,
			"reason": "Password should be at least 8 characters",
		})
		return
	}

	u := apiclient.User{
		ID:        uuid.New(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      apiclient.RoleStudent,
		IsActive:  true,
	}
	s.accounts[u.ID] = &account{user: u, password: req.Password}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeLoginBadCredentials)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, username) && acc.password == password && acc.user.IsActive {
			s.issueCookie(w, acc.user.ID)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeLoginBadCredentials)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, _ *account) {
	if c, err := r.Cookie(CookieName); err == nil {
		delete(s.sessions, c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requestVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req apiclient.EmailRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) && !acc.user.IsVerified {
			s.verifyTokens["verify-"+uuid.NewString()] = acc.user.ID
		}
	}
	// Always accepted so the endpoint does not leak which emails exist.
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var req apiclient.VerifyRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.verifyTokens[req.Token]
	acc := s.accounts[id]
	if !ok || acc == nil {
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeVerifyUserBadToken)
		return
	}
	if acc.user.IsVerified {
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeVerifyUserAlreadyVerified)
		return
	}

	delete(s.verifyTokens, req.Token)
	acc.user.IsVerified = true
	httpx.WriteJSON(w, http.StatusOK, acc.user)
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req apiclient.EmailRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) {
			s.resetTokens["reset-"+uuid.NewString()] = acc.user.ID
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req apiclient.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.resetTokens[req.Token]
	acc := s.accounts[id]
	if !ok || acc == nil {
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeResetPasswordBadToken)
		return
	}
	if len(req.Password) < 8 {
		httpx.WriteDetail(w, http.StatusBadRequest, map[string]string{
			"code":   apiclient.CodeResetPasswordInvalidPassword,
			"reason": "Password should be at least 8 characters",
		})
		return
	}

	delete(s.resetTokens, req.Token)
	acc.password = req.Password
	w.WriteHeader(http.StatusOK)
}

// ============================================================================
// Users
// ============================================================================

func (s *Server) getMe(w http.ResponseWriter, _ *http.Request, me *account) {
	httpx.WriteJSON(w, http.StatusOK, me.user)
}

func (s *Server) patchMe(w http.ResponseWriter, r *http.Request, me *account) {
	var update apiclient.UserUpdate
	if !decode(w, r, &update) {
		return
	}

	if update.Email != nil {
		for _, acc := range s.accounts {
			if acc != me && strings.EqualFold(acc.user.Email, *update.Email) {
				httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeUpdateUserEmailAlreadyExists)
				return
			}
		}
		me.user.Email = *update.Email
		me.user.IsVerified = false
	}
	if update.FirstName != nil {
		me.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		me.user.LastName = *update.LastName
	}
	if update.Password != nil {
		me.password = *update.Password
	}

	httpx.WriteJSON(w, http.StatusOK, me.user)
}

// ============================================================================
// Student
// ============================================================================

func (s *Server) listClassGroups(w http.ResponseWriter, r *http.Request, _ *account) {
	style := r.URL.Query().Get("style")
	level := r.URL.Query().Get("level")

	out := []apiclient.ClassGroup{}
	for _, g := range s.groups {
		if style != "" && !strings.EqualFold(g.Style, style) {
			continue
		}
		if level != "" && !strings.EqualFold(g.Level, level) {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) myCalendar(w http.ResponseWriter, r *http.Request, me *account) {
	from, to := window(r)

	enrolled := map[uuid.UUID]bool{}
	for _, e := range s.enrollments {
		if e.studentID == me.user.ID && e.Status == apiclient.EnrollmentActive {
			enrolled[e.ClassGroupID] = true
		}
	}

	out := []apiclient.ClassSession{}
	for _, cs := range s.classSessions {
		if enrolled[cs.ClassGroupID] && inWindow(cs.StartsAt, from, to) {
			out = append(out, *cs)
		}
	}
	sortSessions(out)
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) myEnrollments(w http.ResponseWriter, _ *http.Request, me *account) {
	out := []apiclient.Enrollment{}
	for _, e := range s.enrollments {
		if e.studentID == me.user.ID {
			out = append(out, e.Enrollment)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request, me *account) {
	var req apiclient.EnrollRequest
	if !decode(w, r, &req) {
		return
	}

	g, ok := s.groups[req.ClassGroupID]
	if !ok {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeClassGroupNotFound)
		return
	}
	for _, e := range s.enrollments {
		if e.studentID == me.user.ID && e.ClassGroupID == g.ID && e.Status != apiclient.EnrollmentCancelled {
			httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeAlreadyEnrolled)
			return
		}
	}

	e := &enrollment{
		Enrollment: apiclient.Enrollment{
			ID:             uuid.New(),
			ClassGroupID:   g.ID,
			ClassGroupName: g.Name,
			Status:         apiclient.EnrollmentActive,
			CreatedAt:      time.Now().UTC(),
		},
		studentID: me.user.ID,
	}
	if g.IsFull() {
		g.WaitlistCount++
		pos := g.WaitlistCount
		e.Status = apiclient.EnrollmentWaitlisted
		e.WaitlistPosition = &pos
	} else {
		g.EnrolledCount++
	}

	s.enrollments[e.ID] = e
	httpx.WriteJSON(w, http.StatusCreated, e.Enrollment)
}

func (s *Server) cancelEnrollment(w http.ResponseWriter, r *http.Request, me *account) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	e, ok := s.enrollments[id]
	if !ok || e.studentID != me.user.ID || e.Status == apiclient.EnrollmentCancelled {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeEnrollmentNotFound)
		return
	}

	g := s.groups[e.ClassGroupID]
	wasActive := e.Status == apiclient.EnrollmentActive
	e.Status = apiclient.EnrollmentCancelled
	e.WaitlistPosition = nil

	if g != nil && wasActive {
		g.EnrolledCount--
		s.promoteWaitlist(g)
	} else if g != nil {
		g.WaitlistCount--
	}

	httpx.WriteJSON(w, http.StatusOK, e.Enrollment)
}

// promoteWaitlist moves the oldest waitlisted enrollment into the freed seat.
func (s *Server) promoteWaitlist(g *apiclient.ClassGroup) {
	var next *enrollment
	for _, e := range s.enrollments {
		if e.ClassGroupID != g.ID || e.Status != apiclient.EnrollmentWaitlisted {
			continue
		}
		if next == nil || e.CreatedAt.Before(next.CreatedAt) {
			next = e
		}
	}
	if next == nil {
		return
	}

	next.Status = apiclient.EnrollmentActive
	next.WaitlistPosition = nil
	g.EnrolledCount++
	g.WaitlistCount--
}

func (s *Server) myAttendance(w http.ResponseWriter, _ *http.Request, me *account) {
	summary := apiclient.AttendanceSummary{Records: []apiclient.AttendanceRecord{}}
	for sessionID, marks := range s.attendance {
		status, ok := marks[me.user.ID]
		if !ok {
			continue
		}
		cs := s.classSessions[sessionID]
		rec := apiclient.AttendanceRecord{ClassSessionID: sessionID, Status: status}
		if cs != nil {
			rec.ClassGroupName = cs.ClassGroupName
			rec.StartsAt = cs.StartsAt
		}
		summary.Records = append(summary.Records, rec)

		summary.Total++
		switch status {
		case apiclient.AttendancePresent:
			summary.Present++
		case apiclient.AttendanceAbsent:
			summary.Absent++
		case apiclient.AttendanceExcused:
			summary.Excused++
		}
	}
	if summary.Total > 0 {
		summary.AttendanceRate = float64(summary.Present) / float64(summary.Total)
	}
	sort.Slice(summary.Records, func(a, b int) bool {
		return summary.Records[a].StartsAt.Before(summary.Records[b].StartsAt)
	})
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) myBilling(w http.ResponseWriter, _ *http.Request, me *account) {
	summary, ok := s.billing[me.user.ID]
	if !ok {
		summary = apiclient.BillingSummary{Currency: "AUD", Items: []apiclient.BillingItem{}}
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

// ============================================================================
// Instructor
// ============================================================================

func teaches(cs *apiclient.ClassSession, me *account) bool {
	if me.user.Role == apiclient.RoleAdmin {
		return true
	}
	if cs.SubstituteInstructorID != nil {
		return *cs.SubstituteInstructorID == me.user.ID
	}
	return cs.InstructorID == me.user.ID
}

func (s *Server) instructorCalendar(w http.ResponseWriter, r *http.Request, me *account) {
	from, to := window(r)
	status := apiclient.SessionStatus(r.URL.Query().Get("status"))

	out := []apiclient.ClassSession{}
	for _, cs := range s.classSessions {
		if !teaches(cs, me) || !inWindow(cs.StartsAt, from, to) {
			continue
		}
		if status != "" && cs.Status != status {
			continue
		}
		out = append(out, *cs)
	}
	sortSessions(out)
	httpx.WriteJSON(w, http.StatusOK, out)
}

// ownedSession resolves the {id} session taught by me. s.mu must be held.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, me *account) (*apiclient.ClassSession, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	cs, ok := s.classSessions[id]
	if !ok || !teaches(cs, me) {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeClassSessionNotFound)
		return nil, false
	}
	return cs, true
}

func scheduledOnly(w http.ResponseWriter, cs *apiclient.ClassSession) bool {
	switch cs.Status {
	case apiclient.SessionCompleted:
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeSessionAlreadyCompleted)
		return false
	case apiclient.SessionCancelled:
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeSessionAlreadyCancelled)
		return false
	}
	return true
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok || !scheduledOnly(w, cs) {
		return
	}
	var req apiclient.CompleteSessionRequest
	if !decode(w, r, &req) {
		return
	}

	cs.Status = apiclient.SessionCompleted
	cs.Notes = req.Notes
	httpx.WriteJSON(w, http.StatusOK, cs)
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok || !scheduledOnly(w, cs) {
		return
	}
	var req apiclient.CancelSessionRequest
	if !decode(w, r, &req) {
		return
	}

	cs.Status = apiclient.SessionCancelled
	cs.Notes = req.Reason
	httpx.WriteJSON(w, http.StatusOK, cs)
}

func (s *Server) rescheduleSession(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok || !scheduledOnly(w, cs) {
		return
	}
	var req apiclient.RescheduleSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		httpx.WriteDetail(w, http.StatusBadRequest, apiclient.CodeInvalidTimeRange)
		return
	}

	cs.StartsAt = req.StartsAt
	cs.EndsAt = req.EndsAt
	httpx.WriteJSON(w, http.StatusOK, cs)
}

func (s *Server) substitute(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok || !scheduledOnly(w, cs) {
		return
	}
	var req apiclient.SubstitutionRequest
	if !decode(w, r, &req) {
		return
	}

	sub := req.SubstituteInstructorID
	cs.SubstituteInstructorID = &sub
	httpx.WriteJSON(w, http.StatusCreated, cs)
}

func (s *Server) getAttendance(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s.rollCall(cs))
}

func (s *Server) putAttendance(w http.ResponseWriter, r *http.Request, me *account) {
	cs, ok := s.ownedSession(w, r, me)
	if !ok {
		return
	}
	var req apiclient.SaveAttendanceRequest
	if !decode(w, r, &req) {
		return
	}

	marks := map[uuid.UUID]apiclient.AttendanceStatus{}
	for _, m := range req.Marks {
		marks[m.StudentID] = m.Status
	}
	s.attendance[cs.ID] = marks
	httpx.WriteJSON(w, http.StatusOK, s.rollCall(cs))
}

// rollCall lists the active students of the session's group. s.mu held.
func (s *Server) rollCall(cs *apiclient.ClassSession) apiclient.SessionAttendance {
	att := apiclient.SessionAttendance{ClassSessionID: cs.ID, Entries: []apiclient.AttendanceEntry{}}
	for _, e := range s.enrollments {
		if e.ClassGroupID != cs.ClassGroupID || e.Status != apiclient.EnrollmentActive {
			continue
		}
		entry := apiclient.AttendanceEntry{StudentID: e.studentID}
		if acc, ok := s.accounts[e.studentID]; ok {
			entry.StudentName = acc.user.FullName()
		}
		entry.Status = s.attendance[cs.ID][e.studentID]
		att.Entries = append(att.Entries, entry)
	}
	sort.Slice(att.Entries, func(a, b int) bool { return att.Entries[a].StudentName < att.Entries[b].StudentName })
	return att
}

// ============================================================================
// Admin
// ============================================================================

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ *account) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	role := apiclient.Role(q.Get("role"))

	var active *bool
	if v := q.Get("is_active"); v != "" {
		b, _ := strconv.ParseBool(v)
		active = &b
	}

	users := []apiclient.User{}
	for _, acc := range s.accounts {
		u := acc.user
		if search != "" && !strings.Contains(strings.ToLower(u.FullName()+" "+u.Email), search) {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		if active != nil && u.IsActive != *active {
			continue
		}
		users = append(users, u)
	}

	sortBy := q.Get("sort_by")
	desc := q.Get("sort_order") == string(apiclient.SortDesc)
	sort.Slice(users, func(a, b int) bool {
		var less bool
		switch sortBy {
		case "email":
			less = users[a].Email < users[b].Email
		case "first_name":
			less = users[a].FirstName < users[b].FirstName
		default:
			less = users[a].LastName+users[a].FirstName < users[b].LastName+users[b].FirstName
		}
		if desc {
			return !less
		}
		return less
	})

	paginate(w, r, users)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	acc, ok := s.accounts[id]
	if !ok {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeNotFound)
		return
	}

	var update apiclient.AdminUserUpdate
	if !decode(w, r, &update) {
		return
	}
	if update.FirstName != nil {
		acc.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		acc.user.LastName = *update.LastName
	}
	if update.Email != nil {
		acc.user.Email = *update.Email
	}
	if update.Role != nil {
		acc.user.Role = *update.Role
	}
	if update.IsActive != nil {
		acc.user.IsActive = *update.IsActive
	}
	if update.IsVerified != nil {
		acc.user.IsVerified = *update.IsVerified
	}
	httpx.WriteJSON(w, http.StatusOK, acc.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, _ *account) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, ok := s.accounts[id]; !ok {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeNotFound)
		return
	}
	delete(s.accounts, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listClassSessions(w http.ResponseWriter, r *http.Request, _ *account) {
	q := r.URL.Query()
	from, to := window(r)
	search := strings.ToLower(q.Get("search"))
	status := apiclient.SessionStatus(q.Get("status"))
	instructor := q.Get("instructor_id")

	out := []apiclient.ClassSession{}
	for _, cs := range s.classSessions {
		if search != "" && !strings.Contains(strings.ToLower(cs.ClassGroupName), search) {
			continue
		}
		if status != "" && cs.Status != status {
			continue
		}
		if instructor != "" && cs.InstructorID.String() != instructor {
			continue
		}
		if !inWindow(cs.StartsAt, from, to) {
			continue
		}
		out = append(out, *cs)
	}
	sortSessions(out)
	if q.Get("sort_order") == string(apiclient.SortDesc) {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	paginate(w, r, out)
}

func (s *Server) listStudents(w http.ResponseWriter, _ *http.Request, _ *account) {
	out := []apiclient.Student{}
	for _, acc := range s.accounts {
		if acc.user.Role != apiclient.RoleStudent {
			continue
		}
		out = append(out, apiclient.Student{
			ID:        acc.user.ID,
			FirstName: acc.user.FirstName,
			LastName:  acc.user.LastName,
			Email:     acc.user.Email,
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].FullName() < out[b].FullName() })
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request, _ *account) {
	student := r.URL.Query().Get("student_id")

	out := []apiclient.Payment{}
	for _, p := range s.payments {
		if student != "" && p.StudentID.String() != student {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].PaidAt.After(out[b].PaidAt) })
	paginate(w, r, out)
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request, _ *account) {
	var req apiclient.RecordPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	acc, ok := s.accounts[req.StudentID]
	if !ok {
		httpx.WriteDetail(w, http.StatusNotFound, apiclient.CodeNotFound)
		return
	}

	p := apiclient.Payment{
		ID:          uuid.New(),
		StudentID:   req.StudentID,
		StudentName: acc.user.FullName(),
		AmountCents: req.AmountCents,
		Method:      req.Method,
		PaidAt:      time.Now().UTC(),
		Note:        req.Note,
	}
	s.payments = append(s.payments, p)
	httpx.WriteJSON(w, http.StatusCreated, p)
}
