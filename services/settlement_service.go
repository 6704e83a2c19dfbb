package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"salonpos-backend/models"
	"salonpos-backend/utils"
)

// CartLine is one line of a point-of-sale cart. Exactly one of ServiceID and
// ProductID is set. A nil UnitPrice takes the catalog price.
type CartLine struct {
	ServiceID *uuid.UUID       `json:"serviceId,omitempty"`
	ProductID *uuid.UUID       `json:"productId,omitempty"`
	Name      string           `json:"name,omitempty"`
	Quantity  int              `json:"quantity" validate:"min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type CheckoutInput struct {
	CustomerID    *uuid.UUID           `json:"customerId"`
	AppointmentID *uuid.UUID           `json:"appointmentId"`
	Items         []CartLine           `json:"items" validate:"dive"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Notes         string               `json:"notes" validate:"max=2000"`
}

// Cart is what a resumed held sale hands back to the register.
type Cart struct {
	CustomerID    *uuid.UUID           `json:"customerId,omitempty"`
	AppointmentID *uuid.UUID           `json:"appointmentId,omitempty"`
	Items         []CartLine           `json:"items"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Notes         string               `json:"notes,omitempty"`
}

type CompleteHeldInput struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Discount      decimal.Decimal      `json:"discount"`
}

type SettlementService struct {
	db    *gorm.DB
	cache *CollectionCache
	now   func() time.Time
}

func NewSettlementService(db *gorm.DB, cache *CollectionCache) *SettlementService {
	return &SettlementService{db: db, cache: cache, now: time.Now}
}

// ComputeTotals prices a set of lines. The discount must lie in [0, subtotal].
func ComputeTotals(items []models.SaleItem, discount decimal.Decimal) (subtotal, total decimal.Decimal, err error) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	if discount.IsNegative() {
		return subtotal, subtotal, fmt.Errorf("%w: discount cannot be negative", ErrInvalidInput)
	}
	if discount.GreaterThan(subtotal) {
		return subtotal, subtotal, fmt.Errorf("%w: discount %s exceeds subtotal %s", ErrInvalidInput, discount, subtotal)
	}
	return subtotal, subtotal.Sub(discount), nil
}

func newSaleNumber(now time.Time) string {
	return fmt.Sprintf("SAL-%s-%s", now.Format("20060102"), utils.GenerateRandomString(6))
}

func actorRef(userID uuid.UUID) *uuid.UUID {
	if userID == uuid.Nil {
		return nil
	}
	return &userID
}

// wholeCents reports whether d fits the two-decimal money columns without
// rounding.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// precheck covers everything that can be rejected without touching the
// database.
func precheck(salonID uuid.UUID, input CheckoutInput) error {
	if err := requireSalon(salonID); err != nil {
		return err
	}
	if len(input.Items) == 0 {
		return ErrEmptyCart
	}
	if err := validateStruct(input); err != nil {
		return err
	}
	for i, line := range input.Items {
		if (line.ServiceID == nil) == (line.ProductID == nil) {
			return fmt.Errorf("%w: line %d must reference exactly one service or product", ErrInvalidInput, i+1)
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative unit price", ErrInvalidInput, i+1)
		}
		if line.UnitPrice != nil && !wholeCents(*line.UnitPrice) {
			return fmt.Errorf("%w: line %d unit price has more than 2 decimal places", ErrInvalidInput, i+1)
		}
	}
	if input.Discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidInput)
	}
	if !wholeCents(input.Discount) {
		return fmt.Errorf("%w: discount has more than 2 decimal places", ErrInvalidInput)
	}
	return nil
}

// priceLines resolves each cart line against the salon's catalog and returns
// unsaved sale items.
func priceLines(tx *gorm.DB, salonID uuid.UUID, lines []CartLine) ([]models.SaleItem, error) {
	items := make([]models.SaleItem, 0, len(lines))
	for _, line := range lines {
		item := models.SaleItem{
			ServiceID: line.ServiceID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		var catalogPrice decimal.Decimal
		if line.ServiceID != nil {
			var service models.Service
			if err := tx.Where("salon_id = ? AND id = ?", salonID, *line.ServiceID).First(&service).Error; err != nil {
				return nil, wrapLookup(err, "service")
			}
			item.Name = service.Name
			catalogPrice = service.Price
		} else {
			var product models.Product
			if err := tx.Where("salon_id = ? AND id = ?", salonID, *line.ProductID).First(&product).Error; err != nil {
				return nil, wrapLookup(err, "product")
			}
			item.Name = product.Name
			catalogPrice = product.SellingPrice
		}
		item.UnitPrice = catalogPrice
		if line.UnitPrice != nil {
			item.UnitPrice = *line.UnitPrice
		}
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items = append(items, item)
	}
	return items, nil
}

func checkCustomer(tx *gorm.DB, salonID uuid.UUID, customerID *uuid.UUID) error {
	if customerID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Customer{}).
		Where("salon_id = ? AND id = ?", salonID, *customerID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: customer", ErrNotFound)
	}
	return nil
}

// buildSale validates the cart inside tx and persists the sale with its items.
func (s *SettlementService) buildSale(tx *gorm.DB, salonID, userID uuid.UUID, input CheckoutInput, status models.PaymentStatus) (*models.Sale, error) {
	if err := checkCustomer(tx, salonID, input.CustomerID); err != nil {
		return nil, err
	}
	items, err := priceLines(tx, salonID, input.Items)
	if err != nil {
		return nil, err
	}
	subtotal, total, err := ComputeTotals(items, input.Discount)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sale := &models.Sale{
		SalonID:         salonID,
		SaleNumber:      newSaleNumber(now),
		CustomerID:      input.CustomerID,
		AppointmentID:   input.AppointmentID,
		CreatedByUserID: actorRef(userID),
		Subtotal:        subtotal,
		Discount:        input.Discount,
		Tax:             decimal.Zero,
		Total:           total,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   status,
		Notes:           input.Notes,
	}
	if status == models.PaymentCompleted {
		sale.CompletedAt = &now
	}
	if err := tx.Omit("Items").Create(sale).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].SaleID = sale.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

// Checkout settles a cart in full: sale, items, appointment closure, stock and
// customer stats all commit together or not at all.
func (s *SettlementService) Checkout(ctx context.Context, salonID, userID uuid.UUID, input CheckoutInput) (*models.Sale, error) {
	if err := precheck(salonID, input); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, input.PaymentMethod)
	}

	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.buildSale(tx, salonID, userID, input, models.PaymentCompleted)
		if err != nil {
			return err
		}
		if input.AppointmentID != nil {
			if err := s.closeAppointment(tx, salonID, *input.AppointmentID, sale.ID); err != nil {
				return err
			}
		}
		if err := decrementStock(tx, salonID, sale.Items); err != nil {
			return err
		}
		return s.recordVisit(tx, salonID, sale.CustomerID, sale.Total)
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}

	s.cache.Invalidate(ctx, salonID, CollectionProducts, CollectionCustomers)
	slog.Info("sale completed", "salon", salonID, "sale", sale.SaleNumber, "total", sale.Total.String())
	return sale, nil
}

// closeAppointment marks the appointment completed and billed by saleID. The
// update only matches while billing_generated is still false.
func (s *SettlementService) closeAppointment(tx *gorm.DB, salonID, appointmentID, saleID uuid.UUID) error {
	now := s.now()
	res := tx.Model(&models.Appointment{}).
		Where("salon_id = ? AND id = ? AND billing_generated = ? AND status NOT IN ?", salonID, appointmentID, false,
			[]models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
		Updates(map[string]interface{}{
			"status":            models.StatusCompleted,
			"billing_generated": true,
			"sale_id":           saleID,
			"completed_at":      now,
			"auto_complete_at":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var appointment models.Appointment
	if err := tx.Where("salon_id = ? AND id = ?", salonID, appointmentID).First(&appointment).Error; err != nil {
		return wrapLookup(err, "appointment")
	}
	if appointment.BillingGenerated {
		return ErrAlreadyBilled
	}
	return fmt.Errorf("%w: cannot bill a %s appointment", ErrInvalidTransition, appointment.Status)
}

// Hold parks a cart as a pending sale. Stock is untouched until payment.
func (s *SettlementService) Hold(ctx context.Context, salonID, userID uuid.UUID, input CheckoutInput) (*models.Sale, error) {
	if err := precheck(salonID, input); err != nil {
		return nil, err
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = models.PaymentCash
	}
	if !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, input.PaymentMethod)
	}

	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.AppointmentID != nil {
			var count int64
			if err := tx.Model(&models.Appointment{}).
				Where("salon_id = ? AND id = ?", salonID, *input.AppointmentID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: appointment", ErrNotFound)
			}
		}
		var err error
		sale, err = s.buildSale(tx, salonID, userID, input, models.PaymentPending)
		return err
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}
	slog.Info("sale held", "salon", salonID, "sale", sale.SaleNumber)
	return sale, nil
}

// Resume hands a held cart back to the register and removes the held sale.
func (s *SettlementService) Resume(ctx context.Context, salonID, saleID uuid.UUID) (*Cart, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}

	var cart *Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Preload("Items").Where("salon_id = ? AND id = ?", salonID, saleID).First(&sale).Error; err != nil {
			return wrapLookup(err, "sale")
		}
		if sale.PaymentStatus != models.PaymentPending {
			return fmt.Errorf("%w: only held sales can be resumed", ErrInvalidInput)
		}
		if sale.AppointmentID != nil {
			var generated int64
			if err := tx.Model(&models.Appointment{}).
				Where("id = ? AND sale_id = ?", *sale.AppointmentID, sale.ID).
				Count(&generated).Error; err != nil {
				return err
			}
			if generated > 0 {
				return fmt.Errorf("%w: appointment billing must be completed, not resumed", ErrInvalidInput)
			}
		}

		cart = &Cart{
			CustomerID:    sale.CustomerID,
			AppointmentID: sale.AppointmentID,
			Discount:      sale.Discount,
			PaymentMethod: sale.PaymentMethod,
			Notes:         sale.Notes,
			Items:         make([]CartLine, 0, len(sale.Items)),
		}
		for _, item := range sale.Items {
			price := item.UnitPrice
			cart.Items = append(cart.Items, CartLine{
				ServiceID: item.ServiceID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: &price,
			})
		}

		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}
	return cart, nil
}

// CompleteHeld takes payment for a pending sale in place. Items are not
// re-priced; the linked appointment, if any, keeps its status.
func (s *SettlementService) CompleteHeld(ctx context.Context, salonID, saleID uuid.UUID, input CompleteHeldInput) (*models.Sale, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, input.PaymentMethod)
	}
	if !wholeCents(input.Discount) {
		return nil, fmt.Errorf("%w: discount has more than 2 decimal places", ErrInvalidInput)
	}

	var sale models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("salon_id = ? AND id = ?", salonID, saleID).First(&sale).Error; err != nil {
			return wrapLookup(err, "sale")
		}
		if sale.PaymentStatus != models.PaymentPending {
			return fmt.Errorf("%w: sale is already completed", ErrInvalidInput)
		}
		if input.Discount.IsNegative() || input.Discount.GreaterThan(sale.Subtotal) {
			return fmt.Errorf("%w: discount must be between 0 and %s", ErrInvalidInput, sale.Subtotal)
		}
		total := sale.Subtotal.Sub(input.Discount)
		now := s.now()

		res := tx.Model(&models.Sale{}).
			Where("id = ? AND payment_status = ?", sale.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentCompleted,
				"payment_method": input.PaymentMethod,
				"discount":       input.Discount,
				"total":          total,
				"completed_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: sale is already completed", ErrInvalidInput)
		}
		sale.PaymentStatus = models.PaymentCompleted
		sale.PaymentMethod = input.PaymentMethod
		sale.Discount = input.Discount
		sale.Total = total
		sale.CompletedAt = &now

		if err := decrementStock(tx, salonID, sale.Items); err != nil {
			return err
		}
		return s.recordVisit(tx, salonID, sale.CustomerID, total)
	})
	if err != nil {
		return nil, TranslateDBError(err)
	}

	s.cache.Invalidate(ctx, salonID, CollectionProducts, CollectionCustomers)
	slog.Info("held sale completed", "salon", salonID, "sale", sale.SaleNumber, "total", sale.Total.String())
	return &sale, nil
}

// generateAppointmentBilling creates the pending sale for a served
// appointment. It returns a nil sale when the appointment was already billed.
func (s *SettlementService) generateAppointmentBilling(tx *gorm.DB, appointment *models.Appointment) (*models.Sale, error) {
	var service models.Service
	if err := tx.Unscoped().Where("id = ?", appointment.ServiceID).First(&service).Error; err != nil {
		return nil, wrapLookup(err, "service")
	}

	saleID := uuid.New()
	res := tx.Model(&models.Appointment{}).
		Where("id = ? AND billing_generated = ?", appointment.ID, false).
		Updates(map[string]interface{}{
			"billing_generated": true,
			"sale_id":           saleID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	serviceID := service.ID
	customerID := appointment.CustomerID
	appointmentID := appointment.ID
	sale := &models.Sale{
		ID:            saleID,
		SalonID:       appointment.SalonID,
		SaleNumber:    newSaleNumber(s.now()),
		CustomerID:    &customerID,
		AppointmentID: &appointmentID,
		Subtotal:      service.Price,
		Discount:      decimal.Zero,
		Tax:           decimal.Zero,
		Total:         service.Price,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: models.PaymentPending,
		Items: []models.SaleItem{{
			ServiceID: &serviceID,
			Name:      service.Name,
			Quantity:  1,
			UnitPrice: service.Price,
			LineTotal: service.Price,
		}},
	}
	if err := tx.Create(sale).Error; err != nil {
		return nil, err
	}
	slog.Info("appointment billing generated", "appointment", appointment.ID, "sale", sale.SaleNumber)
	return sale, nil
}

// decrementStock floors each product at zero inside the database so
// concurrent sales never read-modify-write the quantity.
func decrementStock(tx *gorm.DB, salonID uuid.UUID, items []models.SaleItem) error {
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		err := tx.Model(&models.Product{}).
			Where("salon_id = ? AND id = ?", salonID, *item.ProductID).
			Update("stock_quantity", gorm.Expr(
				"CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END",
				item.Quantity, item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SettlementService) recordVisit(tx *gorm.DB, salonID uuid.UUID, customerID *uuid.UUID, total decimal.Decimal) error {
	if customerID == nil {
		return nil
	}
	return tx.Model(&models.Customer{}).
		Where("salon_id = ? AND id = ?", salonID, *customerID).
		Updates(map[string]interface{}{
			"total_visits": gorm.Expr("total_visits + ?", 1),
			"total_spent":  gorm.Expr("total_spent + ?", total),
			"last_visit":   s.now(),
		}).Error
}

type SaleFilter struct {
	Status     models.PaymentStatus
	CustomerID *uuid.UUID
	From, To   *time.Time
}

func (s *SettlementService) ListSales(ctx context.Context, salonID uuid.UUID, filter SaleFilter) ([]models.Sale, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Items").Preload("Customer").Where("salon_id = ?", salonID)
	if filter.Status != "" {
		q = q.Where("payment_status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	var sales []models.Sale
	err := q.Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (s *SettlementService) GetSale(ctx context.Context, salonID, id uuid.UUID) (*models.Sale, error) {
	if err := requireSalon(salonID); err != nil {
		return nil, err
	}
	var sale models.Sale
	err := s.db.WithContext(ctx).Preload("Items").Preload("Customer").
		Where("salon_id = ? AND id = ?", salonID, id).
		First(&sale).Error
	if err != nil {
		return nil, wrapLookup(err, "sale")
	}
	return &sale, nil
}
