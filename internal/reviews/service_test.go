package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/dstest"
	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice/pgservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/dbtest"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

type fixture struct {
	conn   *gorm.DB
	auth   *dstest.Auth
	tables *dstest.Tables
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	backend, err := pgservice.NewTables(conn)
	require.NoError(t, err)
	f := &fixture{conn: conn, auth: &dstest.Auth{}, tables: &dstest.Tables{Next: backend}}
	f.svc, err = NewService(ServiceParams{Auth: f.auth, Tables: f.tables})
	require.NoError(t, err)
	return f
}

func (f *fixture) signIn(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.conn.Create(&models.Profile{ID: id, FullName: name}).Error)
	f.auth.Session = &dataservice.Session{User: dataservice.User{ID: id}}
	return id
}

func TestCreateRequiresAuthenticatedUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{CourseID: uuid.New(), Rating: 5, Comment: "great"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Empty(t, f.tables.Calls("insert"), "no insert without a session")
}

func TestCreateStampsUserAndJoinsProfile(t *testing.T) {
	f := newFixture(t)
	userID := f.signIn(t, "Ada Lovelace")
	courseID := uuid.New()

	review, err := f.svc.Create(context.Background(), CreateInput{CourseID: courseID, Rating: 4, Comment: "Solid"})
	require.NoError(t, err)
	assert.Equal(t, userID, review.UserID)
	assert.Equal(t, courseID, review.CourseID)
	require.NotNil(t, review.Profile)
	assert.Equal(t, "Ada Lovelace", review.Profile.FullName)
}

func TestCreateRejectsOutOfRangeRating(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "Ada")

	_, err := f.svc.Create(context.Background(), CreateInput{CourseID: uuid.New(), Rating: 6, Comment: "!"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListNewestFirstWithNames(t *testing.T) {
	f := newFixture(t)
	courseID := uuid.New()
	ada, grace := uuid.New(), uuid.New()
	require.NoError(t, f.conn.Create(&models.Profile{ID: ada, FullName: "Ada"}).Error)
	require.NoError(t, f.conn.Create(&models.Profile{ID: grace, FullName: "Grace"}).Error)

	base := time.Now().Add(-time.Hour)
	rows := []models.Review{
		{CourseID: courseID, UserID: ada, Rating: 3, Comment: "older", CreatedAt: base},
		{CourseID: courseID, UserID: grace, Rating: 5, Comment: "newer", CreatedAt: base.Add(time.Minute)},
		{CourseID: uuid.New(), UserID: ada, Rating: 1, Comment: "other course", CreatedAt: base},
	}
	for i := range rows {
		require.NoError(t, f.conn.Create(&rows[i]).Error)
	}

	got, err := f.svc.List(context.Background(), courseID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Comment)
	assert.Equal(t, "Grace", got[0].Profile.FullName)
	assert.Equal(t, "Ada", got[1].Profile.FullName)
}

func TestDuplicateReviewsAreAllowed(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "Ada")
	courseID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, CreateInput{CourseID: courseID, Rating: 5, Comment: "again"})
		require.NoError(t, err)
	}
	got, err := f.svc.List(ctx, courseID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
