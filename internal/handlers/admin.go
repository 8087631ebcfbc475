// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"candelora/internal/cache"
	"candelora/internal/models"
	"candelora/internal/render"
	"candelora/internal/slug"
	"candelora/internal/storage"
	"candelora/internal/store"
)

// maxUploadSize caps product image uploads at 10 MiB.
const maxUploadSize = 10 << 20

// AdminHandlers serves the back office: dashboard, catalog management,
// orders and contact messages. Every catalog write invalidates the
// public page cache.
type AdminHandlers struct {
	renderer   *render.Renderer
	products   *store.ProductStore
	categories *store.CategoryStore
	orders     *store.OrderStore
	users      *store.UserStore
	contacts   *store.ContactStore
	pages      *cache.PageCache
	storage    *storage.Client // nil when object storage is not configured
}

// NewAdminHandlers creates the back office handlers.
func NewAdminHandlers(
	renderer *render.Renderer,
	products *store.ProductStore,
	categories *store.CategoryStore,
	orders *store.OrderStore,
	users *store.UserStore,
	contacts *store.ContactStore,
	pages *cache.PageCache,
	storageClient *storage.Client,
) *AdminHandlers {
	return &AdminHandlers{
		renderer:   renderer,
		products:   products,
		categories: categories,
		orders:     orders,
		users:      users,
		contacts:   contacts,
		pages:      pages,
		storage:    storageClient,
	}
}

// page renders an admin template with the shared title/section fields.
func (h *AdminHandlers) page(w http.ResponseWriter, r *http.Request, name, title, section string, data map[string]any) {
	h.renderer.Page(w, r, name, &render.PageData{
		Title:   title,
		Section: section,
		Data:    data,
	})
}

// Dashboard shows entity counts and the latest orders.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	productCount, err := h.products.Count()
	if err != nil {
		slog.Error("dashboard: count products", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	orderCount, err := h.orders.Count()
	if err != nil {
		slog.Error("dashboard: count orders", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	userCount, err := h.users.Count()
	if err != nil {
		slog.Error("dashboard: count users", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	messageCount, err := h.contacts.Count()
	if err != nil {
		slog.Error("dashboard: count messages", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	recent, err := h.orders.List()
	if err != nil {
		slog.Error("dashboard: list orders", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(recent) > 5 {
		recent = recent[:5]
	}

	h.page(w, r, "admin_dashboard", "Dashboard", "dashboard", map[string]any{
		"ProductCount": productCount,
		"OrderCount":   orderCount,
		"UserCount":    userCount,
		"MessageCount": messageCount,
		"RecentOrders": recent,
	})
}

// ProductsList shows all products in the catalog.
func (h *AdminHandlers) ProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List()
	if err != nil {
		slog.Error("admin products: list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_products", "Products", "products", map[string]any{
		"Products": products,
	})
}

// ProductNewPage renders an empty product form.
func (h *AdminHandlers) ProductNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, nil, "")
}

// ProductCreate inserts a new product from the submitted form.
func (h *AdminHandlers) ProductCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := &models.Product{WaxType: "Soy wax"}
	if msg := h.applyProductForm(r, p); msg != "" {
		h.renderProductForm(w, r, nil, msg)
		return
	}
	p.Slug = h.uniqueProductSlug(p.Name, uuid.Nil)

	if err := h.uploadProductImage(r, p); err != nil {
		slog.Error("admin products: upload image", "error", err)
		h.renderProductForm(w, r, nil, "Image upload failed. Try again.")
		return
	}

	created, err := h.products.Create(p)
	if err != nil {
		slog.Error("admin products: create", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.pages.InvalidateAll(ctx)
	slog.Info("product created", "product", created.ID, "slug", created.Slug)
	render.SetFlash(w, "success", "Product created.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// ProductEditPage renders the form pre-filled with an existing product.
func (h *AdminHandlers) ProductEditPage(w http.ResponseWriter, r *http.Request) {
	product, ok := h.findProductParam(w, r)
	if !ok {
		return
	}
	h.renderProductForm(w, r, product, "")
}

// ProductUpdate saves edits to an existing product. Placed orders keep
// their own name/price snapshots and are unaffected.
func (h *AdminHandlers) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, ok := h.findProductParam(w, r)
	if !ok {
		return
	}

	oldName := product.Name
	if msg := h.applyProductForm(r, product); msg != "" {
		h.renderProductForm(w, r, product, msg)
		return
	}
	if product.Name != oldName {
		product.Slug = h.uniqueProductSlug(product.Name, product.ID)
	}

	oldImage := product.ImageURL
	if err := h.uploadProductImage(r, product); err != nil {
		slog.Error("admin products: upload image", "error", err)
		h.renderProductForm(w, r, product, "Image upload failed. Try again.")
		return
	}

	if err := h.products.Update(product); err != nil {
		slog.Error("admin products: update", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Remove the replaced image only after the row points at the new one.
	if h.storage != nil && oldImage != nil && product.ImageURL != nil && *oldImage != *product.ImageURL {
		if key, ours := h.storage.ExtractKey(*oldImage); ours {
			if err := h.storage.Delete(ctx, key); err != nil {
				slog.Warn("admin products: delete old image", "key", key, "error", err)
			}
		}
	}

	h.pages.InvalidateAll(ctx)
	render.SetFlash(w, "success", "Product updated.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// ProductDelete removes a product. Reviews cascade, carts drop the line
// on next resolution, order items keep their snapshots.
func (h *AdminHandlers) ProductDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, ok := h.findProductParam(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(product.ID); err != nil {
		slog.Error("admin products: delete", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.storage != nil && product.ImageURL != nil {
		if key, ours := h.storage.ExtractKey(*product.ImageURL); ours {
			if err := h.storage.Delete(ctx, key); err != nil {
				slog.Warn("admin products: delete image", "key", key, "error", err)
			}
		}
	}

	h.pages.InvalidateAll(ctx)
	slog.Info("product deleted", "product", product.ID, "slug", product.Slug)
	render.SetFlash(w, "success", "Product deleted.")
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// findProductParam resolves the {id} route parameter to a product,
// writing the error response itself when that fails.
func (h *AdminHandlers) findProductParam(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	product, err := h.products.FindByID(id)
	if err != nil {
		slog.Error("admin products: find by id", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if product == nil {
		notFound(w)
		return nil, false
	}
	return product, true
}

func (h *AdminHandlers) renderProductForm(w http.ResponseWriter, r *http.Request, product *models.Product, errMsg string) {
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("admin products: list categories", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := "New product"
	if product != nil {
		title = "Edit product"
	}
	h.page(w, r, "admin_product_form", title, "products", map[string]any{
		"Product":    product,
		"Categories": cats,
		"Error":      errMsg,
	})
}

// applyProductForm parses and validates the product form into p.
// Returns a user-facing message on the first validation failure.
func (h *AdminHandlers) applyProductForm(r *http.Request, p *models.Product) string {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "Could not read the submitted form."
	}

	name := formValue(r, "name")
	if msg := validateProductName(name); msg != "" {
		return msg
	}
	p.Name = name

	price, err := decimal.NewFromString(formValue(r, "price"))
	if err != nil || price.IsNegative() {
		return "Price must be a non-negative amount."
	}
	p.Price = price.Round(2)

	p.OldPrice = nil
	if v := formValue(r, "old_price"); v != "" {
		oldPrice, err := decimal.NewFromString(v)
		if err != nil || oldPrice.IsNegative() {
			return "Old price must be a non-negative amount."
		}
		oldPrice = oldPrice.Round(2)
		p.OldPrice = &oldPrice
	}

	stock := formInt(r, "stock", -1)
	if stock < 0 {
		return "Stock must be zero or more."
	}
	p.Stock = stock

	p.CategoryID = nil
	if v := formValue(r, "category_id"); v != "" {
		categoryID, err := uuid.Parse(v)
		if err != nil {
			return "Select a valid category."
		}
		p.CategoryID = &categoryID
	}

	p.Description = formValue(r, "description")
	if wax := formValue(r, "wax_type"); wax != "" {
		p.WaxType = wax
	}
	p.Fragrance = optionalField(r, "fragrance")
	p.BurnTime = optionalField(r, "burn_time")
	p.Weight = optionalField(r, "weight")

	return ""
}

// optionalField returns a pointer to the trimmed form value, or nil when
// it is empty.
func optionalField(r *http.Request, name string) *string {
	v := formValue(r, name)
	if v == "" {
		return nil
	}
	return &v
}

// uploadProductImage stores a submitted image and points p at its public
// URL. No file submitted is not an error; storage being unconfigured is
// logged and skipped.
func (h *AdminHandlers) uploadProductImage(r *http.Request, p *models.Product) error {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read image upload: %w", err)
	}
	defer file.Close()

	if h.storage == nil {
		slog.Warn("image upload skipped, object storage not configured")
		return nil
	}

	contentType := header.Header.Get("Content-Type")
	key := "products/" + uuid.NewString() + filepath.Ext(header.Filename)
	if err := h.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		return err
	}

	imageURL := h.storage.FileURL(key)
	p.ImageURL = &imageURL
	return nil
}

// uniqueProductSlug slugifies a name, appending a numeric suffix until
// the slug is free. selfID excludes the product being edited.
func (h *AdminHandlers) uniqueProductSlug(name string, selfID uuid.UUID) string {
	base := slug.Generate(name)
	candidate := base
	for i := 2; ; i++ {
		existing, err := h.products.FindBySlug(candidate)
		if err != nil {
			slog.Warn("unique slug lookup failed", "slug", candidate, "error", err)
			return candidate
		}
		if existing == nil || existing.ID == selfID {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// CategoriesList shows all categories with product counts.
func (h *AdminHandlers) CategoriesList(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List()
	if err != nil {
		slog.Error("admin categories: list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_categories", "Categories", "categories", map[string]any{
		"Categories": cats,
	})
}

// CategoryNewPage renders an empty category form.
func (h *AdminHandlers) CategoryNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderCategoryForm(w, r, nil, "")
}

// CategoryCreate inserts a new category.
func (h *AdminHandlers) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	name := formValue(r, "name")
	if msg := validateCategoryName(name); msg != "" {
		h.renderCategoryForm(w, r, nil, msg)
		return
	}

	c := &models.Category{Name: name, Slug: h.uniqueCategorySlug(name, uuid.Nil)}
	if _, err := h.categories.Create(c); err != nil {
		slog.Error("admin categories: create", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.pages.InvalidateAll(r.Context())
	render.SetFlash(w, "success", "Category created.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryEditPage renders the form pre-filled with an existing category.
func (h *AdminHandlers) CategoryEditPage(w http.ResponseWriter, r *http.Request) {
	category, ok := h.findCategoryParam(w, r)
	if !ok {
		return
	}
	h.renderCategoryForm(w, r, category, "")
}

// CategoryUpdate renames a category, regenerating its slug.
func (h *AdminHandlers) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	category, ok := h.findCategoryParam(w, r)
	if !ok {
		return
	}

	name := formValue(r, "name")
	if msg := validateCategoryName(name); msg != "" {
		h.renderCategoryForm(w, r, category, msg)
		return
	}

	category.Name = name
	category.Slug = h.uniqueCategorySlug(name, category.ID)
	if err := h.categories.Update(category); err != nil {
		slog.Error("admin categories: update", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.pages.InvalidateAll(r.Context())
	render.SetFlash(w, "success", "Category updated.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category. Its products survive uncategorized.
func (h *AdminHandlers) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	category, ok := h.findCategoryParam(w, r)
	if !ok {
		return
	}

	if err := h.categories.Delete(category.ID); err != nil {
		slog.Error("admin categories: delete", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.pages.InvalidateAll(r.Context())
	render.SetFlash(w, "success", "Category deleted.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

func (h *AdminHandlers) findCategoryParam(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	category, err := h.categories.FindByID(id)
	if err != nil {
		slog.Error("admin categories: find by id", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if category == nil {
		notFound(w)
		return nil, false
	}
	return category, true
}

func (h *AdminHandlers) renderCategoryForm(w http.ResponseWriter, r *http.Request, category *models.Category, errMsg string) {
	title := "New category"
	if category != nil {
		title = "Edit category"
	}
	h.page(w, r, "admin_category_form", title, "categories", map[string]any{
		"Category": category,
		"Error":    errMsg,
	})
}

// uniqueCategorySlug mirrors uniqueProductSlug for categories.
func (h *AdminHandlers) uniqueCategorySlug(name string, selfID uuid.UUID) string {
	base := slug.Generate(name)
	candidate := base
	for i := 2; ; i++ {
		existing, err := h.categories.FindBySlug(candidate)
		if err != nil {
			slog.Warn("unique slug lookup failed", "slug", candidate, "error", err)
			return candidate
		}
		if existing == nil || existing.ID == selfID {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// OrdersList shows all orders, newest first.
func (h *AdminHandlers) OrdersList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List()
	if err != nil {
		slog.Error("admin orders: list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_orders", "Orders", "orders", map[string]any{
		"Orders": orders,
	})
}

// OrderDetail shows one order with its line item snapshots.
func (h *AdminHandlers) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	order, err := h.orders.FindByID(id)
	if err != nil {
		slog.Error("admin orders: find by id", "id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if order == nil {
		notFound(w)
		return
	}

	h.page(w, r, "admin_order_detail", "Order detail", "orders", map[string]any{
		"Order": order,
	})
}

// MessagesList shows all contact form messages.
func (h *AdminHandlers) MessagesList(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contacts.List()
	if err != nil {
		slog.Error("admin messages: list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.page(w, r, "admin_messages", "Contact messages", "messages", map[string]any{
		"Messages": messages,
	})
}
