package repository

import (
	"time"

	"go-travel-webapp/internal/models"
)

type BookingRepository struct {
	db *Database
}

func NewBookingRepository(db *Database) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(booking *models.Booking) error {
	return r.db.Create(booking).Error
}

func (r *BookingRepository) GetByID(id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Preload("User").First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Preload("User").Where("reference = ?", reference).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Update(booking *models.Booking) error {
	return r.db.Save(booking).Error
}

func (r *BookingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Booking{}, id).Error
}

// ListForUser returns a user's bookings, newest first, optionally filtered
// by kind (flight, hotel, activity) or status.
func (r *BookingRepository) ListForUser(userID uint, params *models.FilterParams) ([]models.Booking, error) {
	var bookings []models.Booking

	query := r.db.Model(&models.Booking{}).Where("userID = ?", userID)

	switch params.Filter {
	case "flight", "hotel", "activity":
		query = query.Where("kind = ?", params.Filter)
	case "upcoming":
		query = query.Where("start_date >= ?", time.Now())
	case "confirmed", "pending", "cancelled":
		query = query.Where("status = ?", params.Filter)
	}

	if params.SearchTerm != "" {
		searchPattern := "%" + params.SearchTerm + "%"
		query = query.Where("title LIKE ? OR destination LIKE ? OR reference LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	query = query.Order("created_at DESC")

	err := query.Find(&bookings).Error
	return bookings, err
}

// CountByStatus aggregates booking counts for the admin dashboard.
func (r *BookingRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row

	err := r.db.Model(&models.Booking{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
