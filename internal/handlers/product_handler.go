package handlers

import (
	"github.com/arzan03/storefront/internal/apperror"
	"github.com/arzan03/storefront/internal/models"
	"github.com/arzan03/storefront/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.products.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products)
}

func (h *ProductHandler) Single(c *fiber.Ctx) error {
	product, err := h.products.Single(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

func (h *ProductHandler) All(c *fiber.Ctx) error {
	products, err := h.products.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	product, err := h.products.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var request services.CreateProductInput
	if err := c.BodyParser(&request); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	product, err := h.products.Create(c.UserContext(), request)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, product)
}

func (h *ProductHandler) Patch(c *fiber.Ctx) error {
	var patch models.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperror.BadRequest("invalid request body")
	}

	product, err := h.products.Patch(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product)
}
