package seed

// Card is a built-in drawing prompt.
type Card struct {
	Name        string
	Description string
}

// DefaultCards returns the built-in card deck. The deck lists "Tree" twice;
// the seeder keeps the first occurrence.
func DefaultCards() []Card {
	return []Card{
		{Name: "Cat", Description: "A small domesticated carnivorous mammal with soft fur, a short snout, and retractable claws."},
		{Name: "Tree", Description: "A perennial plant with an elongated stem, or trunk, supporting branches and leaves."},
		{Name: "Car", Description: "A road vehicle, typically with four wheels, powered by an internal combustion engine or electric motor."},
		{Name: "House", Description: "A building for human habitation, especially one that is lived in by a family or small group of people."},
		{Name: "Sun", Description: "The star around which the earth orbits, providing light and heat for the planet."},
		{Name: "Book", Description: "A written or printed work consisting of pages glued or sewn together along one side and bound in covers."},
		{Name: "Fish", Description: "A limbless cold-blooded vertebrate animal with gills and fins living wholly in water."},
		{Name: "Mountain", Description: "A large natural elevation of the earth's surface rising abruptly from the surrounding level."},
		{Name: "Bicycle", Description: "A vehicle composed of two wheels held in a frame one behind the other, propelled by pedals and steered with handlebars attached to the front wheel."},
		{Name: "Flower", Description: "The seed-bearing part of a plant, consisting of reproductive organs (stamens and carpels) that are typically surrounded by a brightly colored corolla (petals) and a green calyx (sepals)."},
		{Name: "Dog", Description: "A domesticated carnivorous mammal that typically has a long snout, an acute sense of smell, and a barking, howling, or whining voice."},
		{Name: "Boat", Description: "A small vessel for traveling over water, propelled by oars, sails, or an engine."},
		{Name: "Pencil", Description: "An instrument for writing or drawing, consisting of a thin stick of graphite or a similar substance encased in wood or held in a mechanical holder."},
		{Name: "Computer", Description: "An electronic device for storing and processing data, typically in binary form, according to instructions given to it in a variable program."},
		{Name: "Phone", Description: "A device that uses a series of electronic signals to transmit and receive sound, typically the human voice."},
		{Name: "Chair", Description: "A separate seat for one person, typically with a back and four legs."},
		{Name: "Table", Description: "A piece of furniture with a flat top and one or more legs, providing a level surface on which objects may be placed."},
		{Name: "Plane", Description: "A powered flying vehicle with fixed wings and a weight greater than that of the air it displaces; an airplane."},
		{Name: "Clock", Description: "A mechanical or electrical device for measuring time, typically by hands on a round dial or by displayed digits."},
		{Name: "Lamp", Description: "A device for giving light, either one consisting of an electric bulb together with its holder and shade or cover."},
		{Name: "Tree", Description: "A woody perennial plant, typically having a single stem or trunk growing to a considerable height and bearing lateral branches at some distance from the ground."},
		{Name: "Guitar", Description: "A stringed musical instrument, typically played with the fingers or a pick."},
		{Name: "Pizza", Description: "A dish of Italian origin consisting of a flat, round base of dough baked with a topping of tomato sauce and cheese, typically with added meat or vegetables."},
		{Name: "Hat", Description: "A shaped covering for the head, typically having a brim and a crown."},
		{Name: "Cup", Description: "A small bowl-shaped container for drinking from, typically having a handle."},
		{Name: "Bird", Description: "A warm-blooded egg-laying vertebrate animal distinguished by the possession of feathers, wings, and a beak and (typically) by being able to fly."},
		{Name: "Elephant", Description: "A large herbivorous mammal noted for its long trunk, columnar legs, and large head with temporal glands and wide, flat ears."},
		{Name: "Rocket", Description: "A missile, spacecraft, aircraft, or other vehicle that obtains thrust from a rocket engine."},
		{Name: "Shoe", Description: "A covering for the foot, typically made of leather, having a sturdy sole and not reaching above the ankle."},
		{Name: "Watch", Description: "A small timepiece worn typically on a strap on one's wrist."},
		{Name: "Bed", Description: "A piece of furniture for sleep or rest, typically a framework with a mattress."},
		{Name: "Apple", Description: "The round fruit of a tree of the rose family, which typically has thin red or green skin and crisp flesh."},
		{Name: "Banana", Description: "A long curved fruit that grows in clusters and has soft pulpy flesh and yellow skin when ripe."},
		{Name: "Kite", Description: "A toy consisting of a light frame with thin material stretched over it, flown in the wind at the end of a long string."},
		{Name: "Train", Description: "A series of connected vehicles that move along a track and transport people or goods."},
		{Name: "Snowman", Description: "A figure of a person made of packed snow, typically created by stacking large snowballs and decorated with simple objects for facial features."},
		{Name: "Balloon", Description: "A small bag made of thin rubber or other light material, typically filled with air or helium and often used as a toy or decoration."},
		{Name: "Drum", Description: "A percussion instrument sounded by being struck with sticks or the hands, typically cylindrical, barrel-shaped, or bowl-shaped with a taut membrane over one or both ends."},
	}
}
