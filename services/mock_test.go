package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/cache"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

// -- Mock Store --

type mockStore struct {
	orgs         *mockOrgs
	patients     *mockPatients
	files        *mockFiles
	notes        *mockNotes
	appointments *mockAppointments
	users        *mockUsers
	txErr        error
}

func newMockStore() *mockStore {
	s := &mockStore{
		orgs:         &mockOrgs{orgs: map[string]models.Organization{}},
		patients:     &mockPatients{patients: map[string]models.Patient{}},
		appointments: &mockAppointments{appointments: map[string]models.Appointment{}},
		users:        newMockUsers(),
	}
	s.files = &mockFiles{
		patients: s.patients,
		files:    map[string]models.FileInfo{},
		aids:     map[string]models.PatientMedicalAid{},
		iods:     map[string]models.InjuryOnDuty{},
	}
	s.notes = &mockNotes{files: s.files, notes: map[string]models.TabNote{}, attachments: map[string]models.TabFile{}}
	return s
}

func (s *mockStore) Organizations() repositories.OrganizationRepository { return s.orgs }
func (s *mockStore) Patients() repositories.PatientRepository           { return s.patients }
func (s *mockStore) Files() repositories.FileRepository                 { return s.files }
func (s *mockStore) Notes() repositories.NoteRepository                 { return s.notes }
func (s *mockStore) Appointments() repositories.AppointmentRepository   { return s.appointments }
func (s *mockStore) Users() repositories.UserRepository                 { return s.users }

func (s *mockStore) Transaction(_ context.Context, fn func(tx repositories.Store) error) error {
	if err := fn(s); err != nil {
		return err
	}
	return s.txErr
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// -- Organizations --

type mockOrgs struct {
	orgs  map[string]models.Organization
	reads int
}

func (m *mockOrgs) Create(_ context.Context, org *models.Organization) error {
	newID(&org.ID)
	org.Active = true
	m.orgs[org.ID] = *org
	return nil
}

func (m *mockOrgs) GetByID(_ context.Context, id string) (*models.Organization, error) {
	m.reads++
	org, ok := m.orgs[id]
	if !ok || !org.Active {
		return nil, apperrors.NotFound("organization not found")
	}
	return &org, nil
}

func (m *mockOrgs) Update(_ context.Context, id string, fields map[string]interface{}) error {
	org, ok := m.orgs[id]
	if !ok {
		return apperrors.NotFound("organization not found")
	}
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "name":
			org.Name = s
		case "practice_name":
			org.PracticeName = s
		case "practice_number":
			org.PracticeNumber = s
		case "file_prefix":
			org.FilePrefix = s
		case "phone":
			org.Phone = s
		case "email":
			org.Email = s
		case "address":
			org.Address = s
		case "logo_path":
			org.LogoPath = s
		case "consent_path":
			org.ConsentPath = s
		}
	}
	m.orgs[id] = org
	return nil
}

// -- Patients --

type mockPatients struct {
	patients map[string]models.Patient
}

func (m *mockPatients) add(p models.Patient) models.Patient {
	newID(&p.ID)
	p.Active = true
	m.patients[p.ID] = p
	return p
}

func (m *mockPatients) List(_ context.Context, orgID, _ string, page utils.Pagination) ([]models.Patient, int64, error) {
	var out []models.Patient
	for _, p := range m.patients {
		if p.OrganizationID == orgID && p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Surname < out[j].Surname })
	total := int64(len(out))
	if page.Offset < len(out) {
		out = out[page.Offset:]
	} else {
		out = nil
	}
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, total, nil
}

func (m *mockPatients) GetByID(_ context.Context, orgID, id string) (*models.Patient, error) {
	p, ok := m.patients[id]
	if !ok || p.OrganizationID != orgID || !p.Active {
		return nil, apperrors.NotFound("patient not found")
	}
	return &p, nil
}

func (m *mockPatients) IDNumberExists(_ context.Context, orgID, idNumber, excludeID string) (bool, error) {
	if idNumber == "" {
		return false, nil
	}
	for _, p := range m.patients {
		if p.OrganizationID == orgID && p.Active && p.IDNumber == idNumber && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPatients) CountInOrg(_ context.Context, orgID string, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if p, ok := m.patients[id]; ok && p.OrganizationID == orgID && p.Active {
			n++
		}
	}
	return n, nil
}

func (m *mockPatients) Create(_ context.Context, p *models.Patient) error {
	*p = m.add(*p)
	return nil
}

func (m *mockPatients) Update(_ context.Context, p *models.Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperrors.NotFound("patient not found")
	}
	m.patients[p.ID] = *p
	return nil
}

func (m *mockPatients) Delete(_ context.Context, orgID, id string) error {
	p, ok := m.patients[id]
	if !ok || p.OrganizationID != orgID || !p.Active {
		return apperrors.NotFound("patient not found")
	}
	p.Active = false
	m.patients[id] = p
	return nil
}

func (m *mockPatients) ListFiles(_ context.Context, _, _ string) ([]models.FileInfo, error) {
	return nil, nil
}

// -- Files --

type mockFiles struct {
	patients *mockPatients
	files    map[string]models.FileInfo
	links    []models.PatientFile
	aids     map[string]models.PatientMedicalAid
	iods     map[string]models.InjuryOnDuty
}

func (m *mockFiles) List(_ context.Context, orgID, _ string, _ utils.Pagination) ([]models.FileInfo, int64, error) {
	var out []models.FileInfo
	for _, f := range m.files {
		if f.OrganizationID == orgID && f.Active {
			out = append(out, f)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockFiles) GetByID(ctx context.Context, orgID, id string) (*models.FileInfo, error) {
	f, ok := m.files[id]
	if !ok || f.OrganizationID != orgID || !f.Active {
		return nil, apperrors.NotFound("file not found")
	}
	f.Links, _ = m.Links(ctx, orgID, id)
	return &f, nil
}

func (m *mockFiles) NextSequence(_ context.Context, orgID string) (int, error) {
	last := 0
	for _, f := range m.files {
		if f.OrganizationID == orgID && f.Sequence > last {
			last = f.Sequence
		}
	}
	return last + 1, nil
}

func (m *mockFiles) Create(_ context.Context, f *models.FileInfo) error {
	newID(&f.ID)
	f.Active = true
	m.files[f.ID] = *f
	return nil
}

func (m *mockFiles) UpdateInfo(_ context.Context, orgID, id string, fields map[string]interface{}) error {
	f, ok := m.files[id]
	if !ok || f.OrganizationID != orgID {
		return apperrors.NotFound("file not found")
	}
	for k, v := range fields {
		switch k {
		case "account_code":
			f.AccountCode = v.(string)
		case "referring_doctor":
			f.ReferringDoctor = v.(string)
		case "notes_summary":
			f.NotesSummary = v.(string)
		}
	}
	m.files[id] = f
	return nil
}

func (m *mockFiles) Delete(_ context.Context, orgID, id string) error {
	f, ok := m.files[id]
	if !ok || f.OrganizationID != orgID || !f.Active {
		return apperrors.NotFound("file not found")
	}
	f.Active = false
	m.files[id] = f
	return nil
}

func (m *mockFiles) Link(_ context.Context, orgID, fileID, patientID string) error {
	for _, l := range m.links {
		if l.FileID == fileID && l.PatientID == patientID {
			return nil
		}
	}
	link := models.PatientFile{ID: uuid.NewString(), OrganizationID: orgID, FileID: fileID, PatientID: patientID}
	link.Active = true
	m.links = append(m.links, link)
	return nil
}

func (m *mockFiles) Links(_ context.Context, orgID, fileID string) ([]models.PatientFile, error) {
	var out []models.PatientFile
	for _, l := range m.links {
		if l.FileID == fileID && l.OrganizationID == orgID && l.Active {
			if p, ok := m.patients.patients[l.PatientID]; ok {
				l.Patient = &p
			}
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockFiles) GetMedicalAid(_ context.Context, _, fileID string) (*models.PatientMedicalAid, error) {
	aid, ok := m.aids[fileID]
	if !ok {
		return nil, nil
	}
	return &aid, nil
}

func (m *mockFiles) UpsertMedicalAid(_ context.Context, aid *models.PatientMedicalAid) error {
	newID(&aid.ID)
	m.aids[aid.FileID] = *aid
	return nil
}

func (m *mockFiles) GetInjuryOnDuty(_ context.Context, _, fileID string) (*models.InjuryOnDuty, error) {
	iod, ok := m.iods[fileID]
	if !ok {
		return nil, nil
	}
	return &iod, nil
}

func (m *mockFiles) UpsertInjuryOnDuty(_ context.Context, iod *models.InjuryOnDuty) error {
	newID(&iod.ID)
	m.iods[iod.FileID] = *iod
	return nil
}

// -- Notes --

type mockNotes struct {
	files       *mockFiles
	notes       map[string]models.TabNote
	attachments map[string]models.TabFile
	failAttach  bool
}

func (m *mockNotes) onFile(orgID, fileID string, n models.TabNote) bool {
	if n.OrganizationID != orgID || !n.Active {
		return false
	}
	for _, l := range m.files.links {
		if l.ID == n.PatientFileID && l.FileID == fileID {
			return true
		}
	}
	return false
}

func (m *mockNotes) withFiles(n models.TabNote) models.TabNote {
	n.Files = nil
	for _, f := range m.attachments {
		if f.TabNoteID == n.ID && f.Active {
			n.Files = append(n.Files, f)
		}
	}
	sort.Slice(n.Files, func(i, j int) bool { return n.Files[i].FileName < n.Files[j].FileName })
	return n
}

func (m *mockNotes) ListByFile(_ context.Context, orgID, fileID string) ([]models.TabNote, error) {
	var out []models.TabNote
	for _, n := range m.notes {
		if m.onFile(orgID, fileID, n) {
			out = append(out, m.withFiles(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeStamp.After(out[j].TimeStamp) })
	return out, nil
}

func (m *mockNotes) GetByID(_ context.Context, orgID, fileID, noteID string) (*models.TabNote, error) {
	n, ok := m.notes[noteID]
	if !ok || !m.onFile(orgID, fileID, n) {
		return nil, apperrors.NotFound("note not found")
	}
	n = m.withFiles(n)
	return &n, nil
}

func (m *mockNotes) Create(_ context.Context, n *models.TabNote) error {
	newID(&n.ID)
	n.Active = true
	m.notes[n.ID] = *n
	return nil
}

func (m *mockNotes) Update(_ context.Context, orgID, noteID string, fields map[string]interface{}) error {
	n, ok := m.notes[noteID]
	if !ok || n.OrganizationID != orgID || !n.Active {
		return apperrors.NotFound("note not found")
	}
	for k, v := range fields {
		switch k {
		case "title":
			n.Title = v.(string)
		case "notes":
			n.Notes = v.(string)
		case "time_stamp":
			n.TimeStamp = v.(time.Time)
		}
	}
	m.notes[noteID] = n
	return nil
}

func (m *mockNotes) Delete(_ context.Context, orgID, noteID string) error {
	n, ok := m.notes[noteID]
	if !ok || n.OrganizationID != orgID || !n.Active {
		return apperrors.NotFound("note not found")
	}
	n.Active = false
	m.notes[noteID] = n
	for id, f := range m.attachments {
		if f.TabNoteID == noteID {
			f.Active = false
			m.attachments[id] = f
		}
	}
	return nil
}

func (m *mockNotes) AddAttachment(_ context.Context, f *models.TabFile) error {
	if m.failAttach {
		return errors.New("insert failed")
	}
	newID(&f.ID)
	f.Active = true
	m.attachments[f.ID] = *f
	return nil
}

func (m *mockNotes) GetAttachment(_ context.Context, orgID, noteID, attachmentID string) (*models.TabFile, error) {
	f, ok := m.attachments[attachmentID]
	if !ok || f.OrganizationID != orgID || f.TabNoteID != noteID || !f.Active {
		return nil, apperrors.NotFound("attachment not found")
	}
	return &f, nil
}

func (m *mockNotes) DeleteAttachment(_ context.Context, orgID, attachmentID string) error {
	f, ok := m.attachments[attachmentID]
	if !ok || f.OrganizationID != orgID || !f.Active {
		return apperrors.NotFound("attachment not found")
	}
	f.Active = false
	m.attachments[attachmentID] = f
	return nil
}

// -- Appointments --

type mockAppointments struct {
	appointments map[string]models.Appointment
}

func (m *mockAppointments) List(_ context.Context, orgID string, filter repositories.AppointmentFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.OrganizationID != orgID || !a.Active {
			continue
		}
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAppointments) GetByID(_ context.Context, orgID, id string) (*models.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.OrganizationID != orgID || !a.Active {
		return nil, apperrors.NotFound("appointment not found")
	}
	return &a, nil
}

func (m *mockAppointments) HasOverlap(_ context.Context, orgID, userID string, start, end time.Time, excludeID string) (bool, error) {
	for _, a := range m.appointments {
		if a.OrganizationID != orgID || !a.Active || a.UserID != userID || a.ID == excludeID {
			continue
		}
		if a.Status != models.AppointmentCancelled && a.StartTime.Before(end) && a.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointments) Create(_ context.Context, a *models.Appointment) error {
	newID(&a.ID)
	a.Active = true
	m.appointments[a.ID] = *a
	return nil
}

func (m *mockAppointments) Update(_ context.Context, a *models.Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return apperrors.NotFound("appointment not found")
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *mockAppointments) Delete(_ context.Context, orgID, id string) error {
	a, ok := m.appointments[id]
	if !ok || a.OrganizationID != orgID || !a.Active {
		return apperrors.NotFound("appointment not found")
	}
	a.Active = false
	m.appointments[id] = a
	return nil
}

// -- Users --

type mockUsers struct {
	users map[string]models.User
	roles map[string]models.Role
}

func newMockUsers() *mockUsers {
	m := &mockUsers{users: map[string]models.User{}, roles: map[string]models.Role{}}
	for i, name := range []string{models.RoleAdmin, models.RoleDoctor, models.RoleReceptionist} {
		role := models.Role{ID: int64(i + 1), Name: name}
		for j, p := range models.DefaultPermissions(name) {
			role.Permissions = append(role.Permissions, models.Permission{ID: int64(j + 1), Name: p})
		}
		m.roles[name] = role
	}
	return m
}

func (m *mockUsers) roleByID(id int64) models.Role {
	for _, r := range m.roles {
		if r.ID == id {
			return r
		}
	}
	return models.Role{}
}

func (m *mockUsers) add(u models.User) models.User {
	newID(&u.ID)
	u.Active = true
	u.Role = m.roleByID(u.RoleID)
	m.users[u.ID] = u
	return u
}

func (m *mockUsers) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUsers) UsernameExists(_ context.Context, username, excludeID string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (m *mockUsers) GetUserByID(_ context.Context, orgID, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok || u.OrganizationID != orgID || !u.Active {
		return nil, apperrors.NotFound("user not found")
	}
	return &u, nil
}

func (m *mockUsers) GetAllUsers(_ context.Context, orgID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.OrganizationID == orgID && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUsers) CreateUser(_ context.Context, u *models.User) error {
	*u = m.add(*u)
	return nil
}

func (m *mockUsers) UpdateUser(_ context.Context, orgID, userID string, fields map[string]interface{}) error {
	u, ok := m.users[userID]
	if !ok || u.OrganizationID != orgID || !u.Active {
		return apperrors.NotFound("user not found")
	}
	for k, v := range fields {
		switch k {
		case "username":
			u.Username = v.(string)
		case "email":
			u.Email = v.(string)
		case "name":
			u.Name = v.(string)
		case "surname":
			u.Surname = v.(string)
		case "role_id":
			u.RoleID = v.(int64)
			u.Role = m.roleByID(u.RoleID)
		case "active":
			u.Active = v.(bool)
		}
	}
	m.users[userID] = u
	return nil
}

func (m *mockUsers) UpdateUserPassword(_ context.Context, userID, hashed string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.Password = hashed
	m.users[userID] = u
	return nil
}

func (m *mockUsers) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	u := m.users[userID]
	u.LastLogin = &at
	m.users[userID] = u
	return nil
}

func (m *mockUsers) DeleteUser(ctx context.Context, orgID, userID string) error {
	return m.UpdateUser(ctx, orgID, userID, map[string]interface{}{"active": false})
}

func (m *mockUsers) GetRoleByName(_ context.Context, name string) (*models.Role, error) {
	r, ok := m.roles[name]
	if !ok {
		return nil, apperrors.NotFound("role not found")
	}
	return &r, nil
}

func (m *mockUsers) GetRoles(_ context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -- Email queue --

type sentEmail struct {
	kind string
	to   string
	args []string
}

type mockEmails struct {
	sent []sentEmail
	err  error
}

func (m *mockEmails) EnqueueResetCode(_ context.Context, to, code string) error {
	m.sent = append(m.sent, sentEmail{kind: "reset", to: to, args: []string{code}})
	return m.err
}

func (m *mockEmails) EnqueueWelcome(_ context.Context, to, name, practice string) error {
	m.sent = append(m.sent, sentEmail{kind: "welcome", to: to, args: []string{name, practice}})
	return m.err
}

func (m *mockEmails) EnqueueInvitation(_ context.Context, to, name, practice, username string) error {
	m.sent = append(m.sent, sentEmail{kind: "invitation", to: to, args: []string{name, practice, username}})
	return m.err
}

// -- Helpers --

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c, err := cache.NewCache(client)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return c.WithLockOptions(cache.LockOptions{TTL: time.Second, MaxRetries: 1, RetryDelay: time.Millisecond}), mr
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func seedOrg(t *testing.T, s *mockStore, prefix string) models.Organization {
	t.Helper()
	org := models.Organization{
		Name: "Smile Clinic", PracticeName: "Smile Clinic", PracticeNumber: "0123456",
		FilePrefix: prefix, Email: "info@smile.test", Phone: "0215550100",
	}
	if err := s.orgs.Create(context.Background(), &org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return org
}

func seedUser(s *mockStore, orgID, role, email string) models.User {
	hashed, _ := utils.HashPassword("Secret#123")
	return s.users.add(models.User{
		OrganizationID: orgID,
		Username:       email[:len(email)-len("@smile.test")],
		Email:          email,
		Password:       hashed,
		Name:           "Thandi",
		Surname:        "Nkosi",
		RoleID:         s.users.roles[role].ID,
	})
}

func seedPatient(s *mockStore, orgID, name, surname string) models.Patient {
	return s.patients.add(models.Patient{OrganizationID: orgID, Name: name, Surname: surname})
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError with status %d, got %v", status, err)
	}
	if appErr.Status != status {
		t.Fatalf("expected status %d, got %d (%s)", status, appErr.Status, appErr.Message)
	}
}
