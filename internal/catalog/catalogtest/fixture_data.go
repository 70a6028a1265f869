package catalogtest

// MenuJSON is the fixture menu document
const MenuJSON = `
{
  "categories": {
    "Main": {
      "Club Sandwich": {
        "price": 14.50,
        "description": "Triple-decker sandwich with roast turkey, bacon, lettuce, tomato, and mayonnaise on toasted bread",
        "modifications_allowed": true,
        "available_modifications": ["extra bacon", "no mayo", "no tomato", "gluten-free bread"],
        "allergens": ["gluten", "eggs"],
        "preparation_time": 15
      },
      "Caesar Salad": {
        "price": 12.00,
        "description": "Crisp romaine lettuce, shaved parmesan, garlic croutons, and house Caesar dressing",
        "modifications_allowed": true,
        "available_modifications": ["add chicken", "add anchovies", "no croutons", "dressing on the side"],
        "allergens": ["dairy", "fish", "gluten", "eggs"],
        "preparation_time": 10
      },
      "Margherita Pizza": {
        "price": 16.00,
        "description": "Wood-fired pizza with San Marzano tomato, fresh mozzarella, and basil",
        "modifications_allowed": true,
        "available_modifications": ["extra cheese", "add mushrooms", "gluten-free crust"],
        "allergens": ["dairy", "gluten"],
        "preparation_time": 20,
        "aliases": ["pizza"]
      },
      "Classic Burger": {
        "price": 15.50,
        "description": "Grilled beef patty with lettuce, tomato, pickles, and burger sauce on a brioche bun",
        "modifications_allowed": true,
        "available_modifications": ["add cheese", "add bacon", "no onions", "well done"],
        "allergens": ["gluten", "dairy", "eggs"],
        "preparation_time": 18,
        "aliases": ["burger", "hamburger"]
      },
      "Grilled Salmon": {
        "price": 22.00,
        "description": "Atlantic salmon fillet with lemon butter sauce and seasonal vegetables",
        "modifications_allowed": true,
        "available_modifications": ["no sauce", "side of rice"],
        "allergens": ["fish", "dairy"],
        "preparation_time": 22
      }
    },
    "Side": {
      "French Fries": {
        "price": 5.00,
        "description": "Crispy shoestring fries with sea salt",
        "modifications_allowed": true,
        "available_modifications": ["no salt", "add cheese"],
        "allergens": [],
        "preparation_time": 8,
        "aliases": ["fries", "chips"]
      },
      "Side Salad": {
        "price": 6.00,
        "description": "Mixed greens with cherry tomatoes and balsamic vinaigrette",
        "modifications_allowed": true,
        "available_modifications": ["dressing on the side"],
        "allergens": [],
        "preparation_time": 5
      }
    },
    "Beverage": {
      "Still Water": {
        "price": 3.00,
        "description": "Bottled still mineral water, 500ml",
        "modifications_allowed": false,
        "available_modifications": [],
        "allergens": [],
        "preparation_time": 1,
        "aliases": ["water", "bottled water"]
      },
      "Sparkling Water": {
        "price": 3.50,
        "description": "Bottled sparkling mineral water, 500ml",
        "modifications_allowed": false,
        "available_modifications": [],
        "allergens": [],
        "preparation_time": 1
      },
      "Orange Juice": {
        "price": 4.50,
        "description": "Freshly squeezed orange juice",
        "modifications_allowed": false,
        "available_modifications": [],
        "allergens": [],
        "preparation_time": 3,
        "aliases": ["oj"]
      },
      "Coffee": {
        "price": 3.50,
        "description": "Freshly brewed house blend coffee",
        "modifications_allowed": true,
        "available_modifications": ["add milk", "decaf", "add sugar"],
        "allergens": [],
        "preparation_time": 4
      }
    },
    "Dessert": {
      "Apple Pie": {
        "price": 7.00,
        "description": "Warm spiced apple pie with a flaky butter crust",
        "modifications_allowed": true,
        "available_modifications": ["add ice cream"],
        "allergens": ["gluten", "dairy"],
        "preparation_time": 6
      },
      "Chocolate Cake": {
        "price": 8.00,
        "description": "Rich dark chocolate layer cake with ganache",
        "modifications_allowed": false,
        "available_modifications": [],
        "allergens": ["gluten", "dairy", "eggs"],
        "preparation_time": 5
      },
      "Cheesecake": {
        "price": 8.00,
        "description": "New York style cheesecake with berry compote",
        "modifications_allowed": false,
        "available_modifications": [],
        "allergens": ["gluten", "dairy", "eggs"],
        "preparation_time": 5
      }
    }
  }
}
`

// InventoryJSON is the fixture stock, flat layout. Orange Juice is scarce
// and Apple Pie is sold out.
const InventoryJSON = `{
  "Club Sandwich": 10,
  "Caesar Salad": 8,
  "Margherita Pizza": 5,
  "Classic Burger": 6,
  "Grilled Salmon": 4,
  "French Fries": 20,
  "Side Salad": 10,
  "Still Water": 50,
  "Sparkling Water": 30,
  "Orange Juice": 2,
  "Coffee": 25,
  "Apple Pie": 0,
  "Chocolate Cake": 5,
  "Cheesecake": 3
}`
