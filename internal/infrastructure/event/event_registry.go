package event

import (
	"github.com/inkthread/storefront/internal/domain/artwork"
	"github.com/inkthread/storefront/internal/domain/campaign"
	"github.com/inkthread/storefront/internal/domain/catalog"
	"github.com/inkthread/storefront/internal/domain/customer"
	"github.com/inkthread/storefront/internal/domain/order"
)

// RegisterAllEvents registers every domain event type with the serializer
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register(catalog.EventTypeGarmentCreated, &catalog.GarmentCreatedEvent{})
	serializer.Register(catalog.EventTypeGarmentUpdated, &catalog.GarmentUpdatedEvent{})

	serializer.Register(customer.EventTypeCustomerCreated, &customer.CustomerCreatedEvent{})

	serializer.Register(order.EventTypeOrderCreated, &order.OrderCreatedEvent{})
	serializer.Register(order.EventTypeOrderPaid, &order.OrderPaidEvent{})
	serializer.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
	serializer.Register(order.EventTypeOrderRefunded, &order.OrderRefundedEvent{})

	serializer.Register(artwork.EventTypeArtworkUploaded, &artwork.ArtworkUploadedEvent{})
	serializer.Register(artwork.EventTypeArtworkVectorized, &artwork.ArtworkVectorizedEvent{})
	serializer.Register(artwork.EventTypeArtworkVectorizationFailed, &artwork.ArtworkVectorizationFailedEvent{})

	serializer.Register(campaign.EventTypeCampaignCreated, &campaign.CampaignCreatedEvent{})
	serializer.Register(campaign.EventTypeCampaignOrderPlaced, &campaign.CampaignOrderPlacedEvent{})
	serializer.Register(campaign.EventTypeCampaignOrderPaid, &campaign.CampaignOrderPaidEvent{})
	// lifecycle transitions share one payload type
	for _, t := range []string{
		campaign.EventTypeCampaignClosed,
		campaign.EventTypeCampaignPaid,
		campaign.EventTypeCampaignCompleted,
		campaign.EventTypeCampaignCancelled,
	} {
		serializer.Register(t, &campaign.CampaignStatusEvent{})
	}
}
