package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service"
)

// @Summary Place an order
// @Description Writes the order and all items atomically. Prices are the snapshot sent by the client.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body service.PlaceOrderInput true "Checkout payload"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req service.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	req.UserID = currentUser(c).ID
	o, err := s.svc.Orders.CreateOrder(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// @Summary List my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Router /orders [get]
func (s *Server) listMyOrders(c *gin.Context) {
	orders, err := s.svc.Orders.ListForUser(c, currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// @Summary Get one of my orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getMyOrder(c *gin.Context) {
	o, err := s.svc.Orders.GetForUser(c, c.Param("id"), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Rating statistics for a product
// @Description Recomputed on every call from top-level reviews. Unknown products report zeros.
// @Tags reviews
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.RatingStats
// @Router /reviews/stats/{productId} [get]
func (s *Server) reviewStats(c *gin.Context) {
	stats, err := s.svc.Reviews.Stats(c, c.Param("productId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get a review with its replies
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} domain.Review
// @Failure 404 {object} map[string]string
// @Router /reviews/{id} [get]
func (s *Server) getReview(c *gin.Context) {
	r, err := s.svc.Reviews.Get(c, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Write a review or a reply
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param review body service.CreateReviewInput true "Review"
// @Success 201 {object} domain.Review
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reviews [post]
func (s *Server) createReview(c *gin.Context) {
	var req service.CreateReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	req.UserID = currentUser(c).ID
	r, err := s.svc.Reviews.Create(c, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// @Summary Delete a review
// @Description Author or admin only. Replies go with it.
// @Tags reviews
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reviews/{id} [delete]
func (s *Server) deleteReview(c *gin.Context) {
	if err := s.svc.Reviews.Delete(c, actorOf(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// @Summary Get my cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Cart
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.svc.Carts.Get(c, currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Set the quantity of a cart line
// @Description Quantity 0 removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body service.CartItemInput true "Cart line"
// @Success 200 {object} domain.Cart
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items [put]
func (s *Server) setCartItem(c *gin.Context) {
	var req service.CartItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	cart, err := s.svc.Carts.SetItem(c, currentUser(c).ID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove a cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} domain.Cart
// @Router /cart/items/{productId} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	cart, err := s.svc.Carts.RemoveItem(c, currentUser(c).ID, c.Param("productId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Empty my cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.svc.Carts.Clear(c, currentUser(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
