package handler

import (
    "encoding/json"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-reservation/internal/service"
)

// ReservationHandler exposes the public checkout flow.
type ReservationHandler struct {
    Svc *service.Service
}

func NewReservationHandler(svc *service.Service) *ReservationHandler {
    return &ReservationHandler{Svc: svc}
}

// numberList accepts "05,12" or ["05","12"].
type numberList string

func (n *numberList) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err == nil {
        *n = numberList(s)
        return nil
    }
    var list []string
    if err := json.Unmarshal(b, &list); err != nil {
        return err
    }
    *n = numberList(strings.Join(list, ","))
    return nil
}

type reserveReq struct {
    RaffleID   uint64     `json:"raffle_id"`
    Numbers    numberList `json:"numbers"`
    Name       string     `json:"name"`
    NationalID string     `json:"national_id"`
    Email      string     `json:"email"`
    Phone      string     `json:"phone"`
}

// Create handles POST /v1/reservations.  201 with the payment link, or one
// of 400 incomplete_fields, 404 invalid_raffle, 409 numbers_unavailable,
// 502 payment_link_failed.
func (h *ReservationHandler) Create(c echo.Context) error {
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": service.CodeIncompleteFields, "message": "invalid request body"})
    }
    res, err := h.Svc.Reserve(c.Request().Context(), service.ReserveRequest{
        RaffleID:   req.RaffleID,
        Numbers:    string(req.Numbers),
        Name:       req.Name,
        NationalID: req.NationalID,
        Email:      req.Email,
        Phone:      req.Phone,
    })
    if err != nil {
        return serviceError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}
